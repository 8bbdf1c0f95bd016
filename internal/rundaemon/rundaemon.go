// Package rundaemon wires together config, the I/O loop, the Session
// Manager, and the RPC server into a runnable prised process. It exists so
// cmd/prised (the standalone daemon binary) and cmd/prise's `server`
// subcommand (§6: "prise server — run server in foreground") share one
// bootstrap instead of duplicating it, matching the way grove's groved
// binary and grove daemon subcommands both ultimately call into
// internal/daemon.
package rundaemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rockorager/prise/internal/config"
	"github.com/rockorager/prise/internal/ioloop"
	"github.com/rockorager/prise/internal/rpcserver"
	"github.com/rockorager/prise/internal/session"
)

// Options configures one daemon run.
type Options struct {
	SocketOverride string // PRISE_SOCKET / --socket; empty means use config/§6 default
	ConfigPath     string
}

// Run boots the daemon and blocks serving connections until ctx is
// cancelled or a fatal listen error occurs.
func Run(ctx context.Context, opts Options) error {
	socketPath := config.DefaultSocketPath(opts.SocketOverride)

	watcher, err := config.NewWatcher(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Stop()

	loop, err := ioloop.New()
	if err != nil {
		return fmt.Errorf("io loop: %w", err)
	}
	defer loop.Close()

	cfg := watcher.Current()
	mgr := session.New(loop, session.Config{
		Shell:           cfg.Shell,
		HighWaterBytes:  cfg.HighWaterBytes,
		LowWaterBytes:   cfg.LowWaterBytes,
		ReapTimeout:     cfg.ReapTimeout(),
		DisconnectAfter: cfg.DisconnectTimeout(),
	})

	server := rpcserver.NewServer(mgr, rpcserver.Limits{
		HighWaterBytes:  cfg.HighWaterBytes,
		LowWaterBytes:   cfg.LowWaterBytes,
		DisconnectAfter: cfg.DisconnectTimeout(),
	})

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return err
	}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	go func() {
		if err := loop.Run(loopCtx); err != nil && loopCtx.Err() == nil {
			log.Printf("prised: io loop: %v", err)
		}
	}()

	log.Printf("prised: listening on %s", socketPath)
	err = server.Listen(ctx, socketPath)
	if ctx.Err() != nil {
		os.Remove(socketPath)
		return nil
	}
	return err
}
