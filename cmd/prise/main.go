// prise is the terminal client: it attaches to a running prised (starting
// one if none is listening), drives the external UI's update(event) loop
// through internal/uihost and internal/input, and paints the result with
// internal/render.
//
// Usage:
//
//	prise                  launch, auto-connecting or auto-spawning prised
//	prise --attach <name>  restore a previously detached session
//	prise server           run the daemon in the foreground (no detach)
//
// Grounded on GandalftheGUI-grove's cmd/grove/main.go for the CLI shape
// (§6's "CLI surface" table; the cobra command tree itself follows go-hub)
// and its doAttach's raw-mode/
// detach/SIGWINCH machinery, generalized from one byte-forwarding PTY to
// the full render+input stack a multi-pane UI needs.
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/micro-editor/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/rockorager/prise/internal/clipboard"
	"github.com/rockorager/prise/internal/config"
	"github.com/rockorager/prise/internal/persistence"
	"github.com/rockorager/prise/internal/rpcclient"
)

//go:embed default_ui.lua
var assets embed.FS

var (
	flagSocket      string
	flagConfig      string
	flagAttach      string
	flagNoAutostart bool
)

func main() {
	root := &cobra.Command{
		Use:           "prise",
		Short:         "attach to a prise session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAttach,
	}
	root.PersistentFlags().StringVar(&flagSocket, "socket", "", "daemon socket path (env: PRISE_SOCKET)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (env: PRISE_CONFIG)")
	root.Flags().StringVar(&flagAttach, "attach", "", "restore the named detached session")
	root.Flags().BoolVar(&flagNoAutostart, "no-autostart", false, "fail instead of spawning prised if it isn't running")

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "run the daemon in the foreground",
		RunE:  runServer,
	}
	root.AddCommand(serverCmd)

	if err := root.Execute(); err != nil {
		code := exitCodeOf(err)
		fmt.Fprintln(os.Stderr, "prise:", err)
		os.Exit(code)
	}
}

// exitCodeOf maps an error to §6's exit codes: 0 normal, 2 connection
// refused, 3 session not found, 4 protocol error.
func exitCodeOf(err error) int {
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, persistence.ErrNoSession) {
		return 3
	}
	return 4
}

func runAttach(cmd *cobra.Command, args []string) error {
	socketOverride := flagSocket
	if socketOverride == "" {
		socketOverride = os.Getenv("PRISE_SOCKET")
	}
	socketPath := config.DefaultSocketPath(socketOverride)

	configPath := flagConfig
	if configPath == "" {
		configPath = os.Getenv("PRISE_CONFIG")
	}
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = home + "/.config/prise/prise.yaml"
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if !flagNoAutostart {
		if err := ensureDaemon(socketPath, configPath); err != nil {
			return err
		}
	}

	script, err := assets.ReadFile("default_ui.lua")
	if err != nil {
		return fmt.Errorf("default UI script: %w", err)
	}

	store := persistence.NewStore(config.DefaultSessionsDir())

	clip, err := clipboard.NewSystem()
	if err != nil {
		clip = nil // clipboard is an external collaborator (§1); absence is not fatal
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	var handlerApp *app
	client, err := rpcclient.Dial(socketPath, notificationForwarder{get: func() *app { return handlerApp }})
	if err != nil {
		return exitError{code: 2, err: err}
	}
	defer client.Close()

	a, err := newApp(screen, client, string(script), store, clip, cfg)
	if err != nil {
		return exitError{code: 4, err: err}
	}
	handlerApp = a

	if flagAttach != "" {
		if err := a.switchSession(flagAttach); err != nil {
			return fmt.Errorf("switch session %q: %w", flagAttach, err)
		}
	} else if err := a.bootstrap(context.Background()); err != nil {
		return exitError{code: 4, err: err}
	}

	w, h := screen.Size()
	if err := a.handleResize(w, h); err != nil {
		return exitError{code: 4, err: err}
	}

	code := runEventLoop(a)
	if code == 0 {
		return nil
	}
	return exitError{code: code, err: fmt.Errorf("client exited with code %d", code)}
}

// notificationForwarder lets rpcclient.Dial be called before app exists
// (app needs the dialed *rpcclient.Client), by resolving the real handler
// lazily at dispatch time instead of at Dial time.
type notificationForwarder struct {
	get func() *app
}

func (n notificationForwarder) HandleNotification(method string, params []byte) {
	if a := n.get(); a != nil {
		a.HandleNotification(method, params)
	}
}

// runEventLoop polls tcell events until the UI calls Exit or the
// connection drops, returning the process exit code.
func runEventLoop(a *app) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var prevButtons tcell.ButtonMask
	ctx := context.Background()
	for {
		select {
		case code := <-a.exitCode:
			return code
		case <-sigCh:
			return 0
		case ev, ok := <-events:
			if !ok {
				return 0
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w, h := ev.Size()
				a.handleResize(w, h)
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlY {
					a.pasteFromClipboard(ctx)
					continue
				}
				// §7: "socket closed by server -> client exits cleanly",
				// and the Router funnels both a dropped connection and a
				// script error through the same return value, so any
				// failure here is treated as the connection having gone
				// away rather than a protocol violation (those are
				// caught earlier, at dial/bootstrap time).
				if err := a.router.HandleKey(ctx, decodeKey(ev)); err != nil {
					return 0
				}
			case *tcell.EventMouse:
				raw := decodeMouse(ev, prevButtons)
				prevButtons = ev.Buttons()
				if err := a.router.HandleMouse(ctx, raw); err != nil {
					return 0
				}
			}
		}
	}
}
