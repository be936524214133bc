// Command apistub serves the in-memory inventory backend for local
// development of the console.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-inventory-console/apistub"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	"github.com/jrsteele09/go-inventory-console/internal/logging"
	flag "github.com/spf13/pflag"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	accessTTL := flag.Duration("access-ttl", 5*time.Minute, "lifetime of issued access tokens")
	secret := flag.String("secret", "", "HMAC signing secret (random when empty)")
	flag.Parse()

	logger := logging.New(config.New()).With().Str("component", "apistub").Logger()

	options := []apistub.Option{apistub.WithAccessTTL(*accessTTL), apistub.WithLogger(logger)}
	if *secret != "" {
		options = append(options, apistub.WithSecret(*secret))
	}
	srv := &http.Server{Addr: *addr, Handler: apistub.New(options...), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("addr", *addr).
		Str("password", apistub.DefaultPassword).
		Msg("API stub listening, seeded users: superadmin, admin, staff")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("API stub stopped")
	}
}
