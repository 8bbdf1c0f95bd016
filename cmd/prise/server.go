package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rockorager/prise/internal/rundaemon"
)

// runServer implements `prise server` (§6): the same bootstrap as the
// standalone prised binary, run in the foreground of this process instead
// of a detached daemon.
func runServer(cmd *cobra.Command, args []string) error {
	socketOverride := flagSocket
	if socketOverride == "" {
		socketOverride = os.Getenv("PRISE_SOCKET")
	}
	configPath := flagConfig
	if configPath == "" {
		configPath = os.Getenv("PRISE_CONFIG")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rundaemon.Run(ctx, rundaemon.Options{
		SocketOverride: socketOverride,
		ConfigPath:     configPath,
	})
}
