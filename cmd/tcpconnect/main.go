package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nczempin/tcpconn/client"
	"github.com/nczempin/tcpconn/config"
)

// libraryVersion is reported in the startup banner
const libraryVersion = 1

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("tcpconnect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML config file")
	overrides := config.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if err := overrides.Apply(&cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := client.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	logger.Info("network library", "version", libraryVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.New(cfg, logger).Run(ctx)
	if err != nil {
		return 1
	}

	logger.Debug("run finished", "conn_id", result.ConnID, "elapsed", result.Elapsed)
	return 0
}
