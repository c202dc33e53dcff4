package main

import (
	"fmt"
	"os"
	"time"

	"literature-search-be/internal/config"
	"literature-search-be/internal/pkg/logger"
	"literature-search-be/pkg/smartsearch/remote"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	gatewayURL   string
	gatewayToken string
	timeout      time.Duration
	verbose      bool
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed, color.Bold)
)

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "smartsearch",
		Short:         "Drive a Smart Search session against the gateway from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&gatewayURL, "gateway", cfg.SmartSearch.GatewayURL, "gateway base URL")
	root.PersistentFlags().StringVar(&gatewayToken, "token", cfg.SmartSearch.GatewayToken, "bearer token for the gateway")
	root.PersistentFlags().DurationVar(&timeout, "timeout", cfg.SmartSearch.GatewayTimeout, "per-request timeout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log workflow transitions to stderr")

	root.AddCommand(newRunCmd(cfg), newResumeCmd(), newWatchCmd(cfg))

	if err := root.Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newGateway() *remote.Client {
	return remote.NewClient(gatewayURL, gatewayToken, timeout)
}

func cliLogger() logger.ILogger {
	if verbose {
		return logger.NewConsoleLogger()
	}
	return logger.NewNopLogger()
}

func step(format string, args ...interface{}) {
	titleColor.Printf("==> "+format+"\n", args...)
}

func detail(format string, args ...interface{}) {
	fmt.Printf("    "+format+"\n", args...)
}
