// Command sunway runs one host of a sunway cluster: it parses the
// shared host file, builds a driver context bound to this process's own
// listen port, starts the messaging listener, and blocks until it
// receives an interrupt or SIGTERM.
//
// Usage:
//
//	sunway run <hosts-file-path> <master-address> <listen-port>
//
// The host file lists one cluster member per line as
// "address threads memory listen-port"; threads/memory may be omitted
// and are then auto-detected locally via gopsutil for whichever line's
// listen-port matches this process's own.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/sunway/internal/driver"
	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/telemetry"
)

// logFatal allows tests to intercept a fatal condition without
// terminating the test process.
var logFatal = func(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	root := &cobra.Command{Use: "sunway"}
	root.AddCommand(newRunCommand())
	if err := root.Execute(); err != nil {
		logFatal("sunway: %v", err)
	}
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <hosts-file-path> <master-address> <listen-port>",
		Short: "Run this process as one host of a sunway cluster",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid listen port %q: %w", args[2], err)
			}
			return run(args[0], args[1], port)
		},
	}
}

func run(hostsFilePath, master string, listenPort int) error {
	f, err := os.Open(hostsFilePath)
	if err != nil {
		return fmt.Errorf("sunway: opening host file: %w", err)
	}
	defer f.Close()

	hosts, err := hostconfig.ParseHostFile(f)
	if err != nil {
		return fmt.Errorf("sunway: parsing host file: %w", err)
	}

	selfIndex := -1
	for i, h := range hosts {
		if h.ListenPort == listenPort {
			selfIndex = i
			break
		}
	}
	if selfIndex == -1 {
		return fmt.Errorf("sunway: no host file entry with listen-port %d", listenPort)
	}
	if err := hostconfig.FillLocalCapacity(hosts, selfIndex); err != nil {
		return fmt.Errorf("sunway: detecting local capacity: %w", err)
	}

	cfg, err := hostconfig.LoadOverlay(hosts, master, listenPort)
	if err != nil {
		return fmt.Errorf("sunway: loading config overlay: %w", err)
	}

	hooks, err := telemetry.NewProduction()
	if err != nil {
		return fmt.Errorf("sunway: building telemetry: %w", err)
	}
	defer hooks.Log().Sync() //nolint:errcheck

	d, err := driver.New(cfg, selfIndex, hooks)
	if err != nil {
		return fmt.Errorf("sunway: building driver: %w", err)
	}

	stop := make(chan struct{})
	if err := d.Listen(stop); err != nil {
		return fmt.Errorf("sunway: %w", err)
	}
	hooks.Log().Info("sunway: listening", zap.String("address", d.SelfAddress()), zap.Int("port", listenPort))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	hooks.Log().Info("sunway: shutting down")
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Shutdown(shutdownCtx); err != nil {
		hooks.Log().Warn("sunway: shutdown deadline exceeded, in-flight connections may have been cut", zap.Error(err))
	}
	return nil
}
