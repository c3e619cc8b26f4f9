// Command bookclub-mock serves an in-memory bookclub API for local use.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/five82/bookclub/internal/mockapi"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		listen  string
		seed    bool
		verbose bool
	)
	flagSet := pflag.NewFlagSet("bookclub-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "localhost:8000", "address to serve on")
	flagSet.BoolVar(&seed, "seed", true, "load sample users, clubs and books")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every request")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "bookclub-mock: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	api := mockapi.New(logger)
	if seed {
		api.Seed()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              listen,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving bookclub api", "root", "http://"+listen+"/api/")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "bookclub-mock: %v\n", err)
		return 1
	}
	return 0
}
