package dwd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-routeros/routeros/v3/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouter accepts one API connection and hands it to serve.
func fakeRouter(t *testing.T, serve func(r *bufio.Reader, w proto.Writer)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(bufio.NewReader(conn), proto.NewWriter(conn))
	}()
	return ln.Addr().String()
}

// readWords reads one sentence as raw words. Query words such as
// "?=interface=x" are not accepted by proto.Reader, so the fake router
// decodes the framing itself.
func readWords(r *bufio.Reader) ([]string, error) {
	var words []string
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n := int(b)
		if b&0x80 != 0 {
			lo, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			n = int(b&0x3f)<<8 | int(lo)
		}
		if n == 0 {
			return words, nil
		}
		word := make([]byte, n)
		if _, err := io.ReadFull(r, word); err != nil {
			return nil, err
		}
		words = append(words, string(word))
	}
}

func writeSentence(w proto.Writer, words ...string) error {
	w.BeginSentence()
	for _, word := range words {
		w.WriteWord(word)
	}
	return w.EndSentence()
}

func TestRouterOSLookup(t *testing.T) {
	got := make(chan []string, 2)
	addr := fakeRouter(t, func(r *bufio.Reader, w proto.Writer) {
		login, err := readWords(r)
		if err != nil {
			return
		}
		got <- login
		writeSentence(w, "!done")

		query, err := readWords(r)
		if err != nil {
			return
		}
		got <- query
		writeSentence(w, "!re", "=address=192.168.88.1/24", "=interface=pppoe-out1")
		writeSentence(w, "!re", "=address=203.0.113.7/32", "=interface=pppoe-out1")
		writeSentence(w, "!done")
	})

	l := &routerOSLookup{conf: RouterOSConfig{
		Address:   addr,
		Username:  "admin",
		Password:  "secret",
		Interface: "pppoe-out1",
	}}
	ip, err := l.LookupIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)

	assert.Equal(t, []string{"/login", "=name=admin", "=password=secret"}, <-got)
	assert.Equal(t, []string{"/ip/address/print", "?=interface=pppoe-out1"}, <-got)
}

func TestRouterOSLookupTrap(t *testing.T) {
	addr := fakeRouter(t, func(r *bufio.Reader, w proto.Writer) {
		if _, err := readWords(r); err != nil {
			return
		}
		writeSentence(w, "!trap", "=message=invalid user name or password (6)")
		writeSentence(w, "!done")
	})

	l := &routerOSLookup{conf: RouterOSConfig{Address: addr, Username: "admin", Interface: "ether1"}}
	_, err := l.LookupIP(context.Background())
	assert.ErrorContains(t, err, "invalid user name or password")
}

func TestRouterOSLookupCanceled(t *testing.T) {
	closed := make(chan struct{})
	addr := fakeRouter(t, func(r *bufio.Reader, _ proto.Writer) {
		defer close(closed)
		// Never answer; wait for the client to hang up.
		for {
			if _, err := readWords(r); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	l := &routerOSLookup{conf: RouterOSConfig{Address: addr, Username: "admin", Interface: "ether1"}}
	start := time.Now()
	_, err := l.LookupIP(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not closed after the context expired")
	}
}
