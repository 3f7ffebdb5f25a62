package dwd_test

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/netip"
	"os"
	"time"

	"github.com/linkdesu/dwd"
)

func ExampleNew() {
	u, err := dwd.New(
		dwd.WithIPProviders(dwd.Static),
		dwd.WithDNSProviders(dwd.Dynv6Com),
		dwd.UsingLookup(dwd.Static, dwd.LookupFunc(func(context.Context) (string, error) {
			return "203.0.113.7", nil
		})),
		dwd.UsingPublisher(dwd.Dynv6Com, dwd.PublishFunc(func(_ context.Context, ip netip.Addr) error {
			fmt.Println("publish", ip)
			return nil
		})),
	)
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}

	c := u.RunOnce(context.Background())
	fmt.Println(c.Outcome)
	c = u.RunOnce(context.Background())
	fmt.Println(c.Outcome, "-", c.Reason)
	// Output:
	// publish 203.0.113.7
	// published
	// skipped - ip unchanged since last publish
}

func ExampleLoadConfig() {
	conf, err := dwd.LoadConfig("/etc/dwd/config.yaml")
	if err != nil {
		log.Fatalf("error loading config: %s", err)
	}
	u, err := dwd.New(
		dwd.FromConfig(conf),
		dwd.WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))),
	)
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}
	// run once:
	c := u.RunOnce(context.Background())
	if len(c.Failed()) > 0 {
		log.Fatalf("update failed for %v", c.Failed())
	}
}

func ExampleRunDaemon() {
	conf, err := dwd.LoadConfig("config.toml")
	if err != nil {
		log.Fatalf("error loading config: %s", err)
	}
	u, err := dwd.New(dwd.FromConfig(conf), dwd.WithInterval(5*time.Minute))
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}

	// run every 5 minutes and stop after an hour:
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
	defer cancel()
	<-dwd.RunDaemon(ctx, u)
}
