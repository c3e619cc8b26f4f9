package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/bookclub/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts app.Options

	flagSet := pflag.NewFlagSet("bookclub", pflag.ContinueOnError)
	flagSet.StringVar(&opts.Address, "address", "", "bookclub API root (default http://localhost:8000/)")
	flagSet.StringVarP(&opts.User, "user", "u", "", "identity sent as BC-User (optional)")
	flagSet.StringVar(&opts.ConfigPath, "config", "", "override config path (optional)")
	flagSet.StringVar(&opts.PrefsPath, "prefs", "", "override prefs path (optional)")
	flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "bookclub: %v\n", err)
		return 2
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "bookclub: unexpected argument: %s\n", rest[0])
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "bookclub: %v\n", err)
		return 1
	}
	return 0
}
