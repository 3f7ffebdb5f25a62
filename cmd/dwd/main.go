package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/linkdesu/dwd"
	"golang.org/x/term"
)

var config = struct {
	Path            string
	Verbose         verbosity
	Once            bool
	SetupCloudflare bool
}{}

func init() {
	flag.StringVar(&config.Path, "c", "", "Path to the config file (.json, .toml, .yaml)")
	flag.Var(&config.Verbose, "v", "Verbose logging; repeat to add source locations")
	flag.BoolVar(&config.Once, "once", false, "Run a single update cycle and exit")
	flag.BoolVar(&config.SetupCloudflare, "setup-cloudflare", false, "Prompt for a Cloudflare API token and write it to cloudflare.token_file")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if config.Path == "" {
		return errors.New("a config file is required: -c path")
	}

	conf, err := dwd.LoadConfig(config.Path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(conf.Log, int(config.Verbose))
	if err != nil {
		return err
	}
	httpClient := dwd.NewHTTPClient(conf.HTTP, log)

	if config.SetupCloudflare {
		return runSetup(conf, httpClient, log)
	}
	if err := ensureTokenFile(conf, httpClient, log); err != nil {
		return err
	}

	u, err := dwd.New(
		dwd.FromConfig(conf),
		dwd.UsingHTTPClient(httpClient),
		dwd.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("error creating updater: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.Once {
		c := u.RunOnce(ctx)
		if c.Outcome != dwd.Published || len(c.Failed()) > 0 {
			return fmt.Errorf("cycle %s %s: %s", c.ID, c.Outcome, cycleDetail(c))
		}
		return nil
	}

	err = dwd.Supervise(ctx, u)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run: %w", err)
	}
	log.Info("dwd has stopped")
	return nil
}

func cycleDetail(c dwd.Cycle) string {
	if c.Err != nil {
		return c.Err.Error()
	}
	if failed := c.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = string(f)
		}
		return "failed providers: " + strings.Join(names, ", ")
	}
	return c.Reason
}

// ensureTokenFile runs the setup prompt when Cloudflare is configured with
// a token file that does not exist yet and a terminal is attached.
func ensureTokenFile(conf *dwd.Config, httpClient *http.Client, log *slog.Logger) error {
	cf := conf.Cloudflare
	if cf == nil || cf.Token != "" || cf.TokenFile == "" {
		return nil
	}
	if _, err := os.Stat(cf.TokenFile); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	log.Warn("token file does not exist", slog.String("path", cf.TokenFile))
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return runSetup(conf, httpClient, log)
}

func runSetup(conf *dwd.Config, httpClient *http.Client, log *slog.Logger) error {
	if conf.Cloudflare == nil || conf.Cloudflare.TokenFile == "" {
		return errors.New("setup: cloudflare.token_file is not set")
	}
	path := conf.Cloudflare.TokenFile
	log.Debug("running setup")

	fmt.Fprintf(os.Stderr, "Enter Cloudflare API Token: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("setup: error reading from stdin: %w", err)
	}
	token := strings.TrimSpace(string(bytekey))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Debug("verifying token")
	if err := dwd.VerifyCloudflareToken(ctx, token, httpClient); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	log.Info("token verified successfully")

	if err := dwd.WriteTokenFile(path, token); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	log.Info("token written", slog.String("path", path))
	return nil
}
