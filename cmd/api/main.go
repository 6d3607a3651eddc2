package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lending-service/cmd/api/cache"
	"github.com/lending-service/cmd/api/config"
	"github.com/lending-service/cmd/api/database"
	lendinghttp "github.com/lending-service/cmd/api/http"
	"github.com/lending-service/cmd/api/identity"
	"github.com/lending-service/cmd/api/inmemory"
	"github.com/lending-service/cmd/api/lending"
	"github.com/lending-service/cmd/api/live"
	"github.com/lending-service/cmd/api/notifications"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/time/rate"

	_ "github.com/lib/pq"
)

func main() {
	err := run()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	secret, issuer, tokenDuration, err := cfg.Tokens()
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	lru, err := cache.NewLRU(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	hub := live.NewHub(cfg.LiveAllowedOrigins...)
	ntfy := notifications.NewNtfy(cfg.NotificationsEnabled, cfg.NotificationsBaseURL, &http.Client{Timeout: cfg.NotificationsTimeout})

	lendingService := lending.NewService(repo, ntfy, cfg.NotificationsTimeout).
		WithCache(lru).
		WithBroadcaster(hub).
		WithDeleteOnReturn(cfg.DeleteOnReturn)

	//repair availability flags left behind by an earlier crash:
	report, err := lendingService.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconciling: %w", err)
	}
	log.Printf("reconcile: %d book(s) checked, %d repaired", report.BooksChecked, len(report.Repaired))

	tokens := identity.TokenService{Secret: secret, Issuer: issuer, Duration: tokenDuration}
	lendingHandler := lendinghttp.NewLendingHandler(lendingService, tokens, hub, cfg.RequestTimeout)

	//create and init http server:
	server := lendinghttp.NewServer(lendinghttp.ServerConfig{
		Port:      cfg.HTTPPort,
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateLimitBurst,
	}, lendingHandler)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", server.Addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("unexpected http server error: %w", err)
		}
		close(serverErr)
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sc:
	case err := <-serverErr:
		return err
	}

	ctx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	stats := hub.Stats()
	log.Printf("Graceful shutdown complete. Live feed had %d connection(s) for %d user(s).", stats.Connections, stats.Users)
	return nil
}

/* Opens PostgreSQL and applies the migrations when DATABASE_URL is set, the in-memory store otherwise. */
func openRepository(cfg config.Config) (lending.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		store, err := inmemory.NewInMemoryStore()
		if err != nil {
			return nil, nil, fmt.Errorf("creating in-memory store: %w", err)
		}
		return store, func() {}, nil
	}

	dbObject, err := database.ConnectDb(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting with db: %w", err)
	}

	store := database.NewStore(dbObject)
	err = database.MigrationUp(store, cfg.MigrationsPath)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		dbObject.Close()
		return nil, nil, fmt.Errorf("migrating: %w", err)
	}

	return store, func() { dbObject.Close() }, nil
}
