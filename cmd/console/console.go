package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/simp-lee/logger"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/config"
	"github.com/simp-lee/hireline/internal/session"
	"github.com/simp-lee/hireline/internal/store"
)

// console bundles what every command needs: one API client, the session
// bound to it and the stores sharing it.
type console struct {
	log     *logger.Logger
	client  *apiclient.Client
	session *session.Session
	stores  *store.Stores
	closers []func() error
}

func newConsole(ctx context.Context, cfg *config.Config, stderr io.Writer) (*console, error) {
	if cfg.Client.APIBaseURL == "" {
		return nil, errors.New("client.api_base_url is required for the console")
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	con := &console{log: log, closers: []func() error{log.Close}}

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.Client.APIBaseURL,
		Timeout: cfg.Client.RequestTimeout(),
		Logger:  log.Logger,
	})
	if err != nil {
		con.Close()
		return nil, err
	}
	con.client = client

	storage, closeStorage, err := newSessionStorage(ctx, cfg.Session)
	if err != nil {
		con.Close()
		return nil, err
	}
	if closeStorage != nil {
		con.closers = append(con.closers, closeStorage)
	}

	con.session, err = session.New(session.Options{
		Client:  client,
		Storage: storage,
		Navigator: session.NavigatorFunc(func(path string) {
			fmt.Fprintf(stderr, "signed out (dashboard would redirect to %s); run the login command\n", path)
		}),
		Logger:        log.Logger,
		CookieMaxAge:  cfg.Session.CookieTTL(),
		CheckInterval: cfg.Session.ExpiryCheckInterval(),
	})
	if err != nil {
		con.Close()
		return nil, err
	}

	con.stores = store.NewStores(client, log.Logger)
	return con, nil
}

// newSessionStorage picks the durable session storage configured for the
// console. The returned closer may be nil.
func newSessionStorage(ctx context.Context, cfg config.SessionConfig) (session.Storage, func() error, error) {
	switch cfg.Storage {
	case config.SessionStorageFile:
		return session.NewFileStorage(cfg.FilePath), nil, nil
	case config.SessionStorageRedis:
		rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session redis: %w", err)
		}
		var opts []session.RedisStorageOption
		if ttl := cfg.CookieTTL(); ttl > 0 {
			opts = append(opts, session.WithTTL(ttl))
		}
		return session.NewRedisStorage(session.NewGoRedisClient(rdb), opts...), rdb.Close, nil
	default:
		return session.NewMemoryStorage(), nil, nil
	}
}

// authenticated restores the persisted session and fails when there is none.
func (c *console) authenticated(ctx context.Context) error {
	ok, err := c.session.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not logged in")
	}
	return nil
}

// Close waits for background store work and releases resources.
func (c *console) Close() {
	if c.stores != nil {
		c.stores.Wait()
	}
	if c.session != nil {
		c.session.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			slog.Error("console close error", slog.Any("error", err))
		}
	}
}
