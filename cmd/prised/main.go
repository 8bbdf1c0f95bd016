// prised – the background daemon that owns PTYs, screens, and client
// attachment for prise (spec §4.2–§4.5).
//
// Usage:
//
//	prised [--socket <path>] [--config <path>]
//
// prised listens on a Unix domain socket (§6) and serves the framed RPC
// protocol of §4.1 to any number of prise clients. It is normally started
// automatically by the prise client; running it by hand is only needed to
// keep a session alive independent of any attached terminal.
//
// Grounded on GandalftheGUI-grove's cmd/groved/main.go: flag-parsed root
// directory with an environment-variable override, and signal-driven
// graceful shutdown that removes the socket file before exiting. The
// actual bootstrap (config, I/O loop, Session Manager, RPC server) lives
// in internal/rundaemon so this binary and `prise server` share it.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rockorager/prise/internal/rundaemon"
)

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("prised: cannot determine home directory: %v", err)
	}
	defaultConfig := filepath.Join(homeDir, ".config", "prise", "prise.yaml")
	if env := os.Getenv("PRISE_CONFIG"); env != "" {
		defaultConfig = env
	}

	socketFlag := flag.String("socket", "", "socket path (env: PRISE_SOCKET; default: $XDG_RUNTIME_DIR/prise.sock)")
	configFlag := flag.String("config", defaultConfig, "config file path (env: PRISE_CONFIG)")
	flag.Parse()

	socketOverride := *socketFlag
	if socketOverride == "" {
		socketOverride = os.Getenv("PRISE_SOCKET")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("prised: received %v, shutting down", sig)
		cancel()
	}()

	if err := rundaemon.Run(ctx, rundaemon.Options{
		SocketOverride: socketOverride,
		ConfigPath:     *configFlag,
	}); err != nil {
		log.Fatalf("prised: %v", err)
	}
}
