// Command storefront is a terminal shopper for the storefront API. It keeps
// the guest cart and login token in a local cache between runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/thriftshop/storefront/config"
	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/localcache"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/redis"
	"github.com/thriftshop/storefront/pkg/retry"
	"github.com/thriftshop/storefront/pkg/storefront"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Initialize(logger.Config{
		Level:       getenvDefault("STOREFRONT_LOG_LEVEL", "warn"),
		Format:      "console",
		Output:      os.Stderr,
		EnableColor: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openCache(cfg *config.Config) (localcache.KV, func(), error) {
	switch cfg.Client.CacheBackend {
	case "memory":
		return localcache.NewMemory(), func() {}, nil
	case "redis":
		client, err := redis.Connect(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return localcache.NewRedis(client, "storefront"), func() { client.Close() }, nil
	case "file", "":
		f, err := localcache.OpenFile(cfg.Client.CachePath)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Client.CacheBackend)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage
	}

	cache, closeCache, err := openCache(cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeCache()

	api, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.Client.APIBaseURL,
		Timeout:   cfg.Client.RequestTimeout,
		UserAgent: "storefront-cli",
	})
	if err != nil {
		return err
	}

	store := storefront.New(api, storefront.Options{
		Cache: cache,
		Notifier: storefront.NotifierFunc(func(n storefront.Notice) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Message)
		}),
		TokenRetry: retry.Policy{Attempts: 3, BaseDelay: cfg.Client.RetryBaseDelay},
	})

	if err := store.Initialize(ctx); err != nil && !errors.Is(err, storefront.ErrSessionExpired) {
		logger.Warn("Store initialized without a verified session", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return cmd.run(&cli{store: store, out: out}, ctx, args[1:])
}
