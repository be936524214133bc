package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	"github.com/jrsteele09/go-inventory-console/internal/logging"
	"github.com/jrsteele09/go-inventory-console/server"
	"github.com/jrsteele09/go-inventory-console/server/consolesession"
	"github.com/jrsteele09/go-inventory-console/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

const evictInterval = time.Minute

func main() {
	configPath := flag.String("config", config.ConfigFilePath(), "YAML config file (overrides INVENTORY_CONFIG)")
	flag.Parse()

	for {
		if err := run(*configPath); err != nil {
			log.Error().Err(err).Msg("Error running console")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Console stopped")
}

func run(configPath string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, closeStores, err := tokenStores(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	consoles := consolesession.NewInMemoryRepo(
		consolesession.NewFactory(c, stores, logger),
		consolesession.WithLogger(logger),
	)
	handler, err := server.New(c, consoles, server.WithLogger(logger))
	if err != nil {
		return err
	}
	go handler.RunEvictor(ctx, evictInterval)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(httpServer)
	return returnError
}

// tokenStores picks where console credentials are kept. Postgres and file
// stores let signed-in browsers survive a restart.
func tokenStores(ctx context.Context, c config.Config, logger zerolog.Logger) (consolesession.StoreFactory, func(), error) {
	switch c.GetTokenStore() {
	case config.TokenStoreMemory:
		return consolesession.MemoryStores, func() {}, nil

	case config.TokenStoreFile:
		dir := c.GetSessionDir()
		if dir == "" {
			dir = filepath.Join(filepath.Dir(tokenstore.DefaultFilePath()), "consoles")
		}
		logger.Info().Str("dir", dir).Msg("Using file token store")
		return func(id string) tokenstore.Store {
			return tokenstore.NewFile(filepath.Join(dir, id+".json"))
		}, func() {}, nil

	case config.TokenStorePostgres:
		if c.GetDatabaseURL() == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres token store")
		}
		pool, err := pgxpool.New(ctx, c.GetDatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		repo := tokenstore.NewPostgresRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		removed, err := repo.DeleteStale(ctx, time.Now().Add(-c.GetSessionMaxAge()))
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Int64("stale_removed", removed).Msg("Using postgres token store")
		return repo.For, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q", c.GetTokenStore())
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Console listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
