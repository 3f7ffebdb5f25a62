package dwd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-routeros/routeros/v3"
	"github.com/go-routeros/routeros/v3/proto"
)

// routerOSTimeout bounds one whole exchange with the router.
const routerOSTimeout = 20 * time.Second

// routerOSLookup reads the WAN address of a MikroTik router over its API.
type routerOSLookup struct {
	conf RouterOSConfig
}

func (r *routerOSLookup) LookupIP(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, routerOSTimeout)
	defer cancel()

	conn, err := new(net.Dialer).DialContext(ctx, "tcp", r.conf.Address)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", r.conf.Address, err)
	}
	// The client reads synchronously and never looks at ctx, so closing
	// the socket is what unblocks it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := routeros.NewClient(conn)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("dial %s: %w", r.conf.Address, err)
	}
	defer c.Close()

	password := credential(r.conf.Password, "ROUTEROS_PASSWORD")
	if err := c.LoginContext(ctx, r.conf.Username, password); err != nil {
		return "", fmt.Errorf("login to %s: %w", r.conf.Address, routerOSErr(ctx, err))
	}

	cmd := "/ip/address/print"
	if r.conf.IPv6 {
		cmd = "/ipv6/address/print"
	}
	reply, err := c.RunContext(ctx, cmd, "?=interface="+r.conf.Interface)
	if err != nil {
		return "", fmt.Errorf("%s on %s: %w", cmd, r.conf.Interface, routerOSErr(ctx, err))
	}
	addr, err := publicAddress(sentenceAddresses(reply.Re), r.conf.IPv6)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", r.conf.Interface, err)
	}
	return addr.String(), nil
}

// routerOSErr prefers the context error over the closed-connection error
// it causes.
func routerOSErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

func sentenceAddresses(re []*proto.Sentence) []string {
	out := make([]string, 0, len(re))
	for _, s := range re {
		if a := s.Map["address"]; a != "" {
			out = append(out, a)
		}
	}
	return out
}
