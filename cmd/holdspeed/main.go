package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"holdspeed/internal/settings"
	"holdspeed/internal/speed"
)

const version = "0.3.0"

func printVersion() {
	fmt.Printf("holdspeed v%s\n", version)
	fmt.Println("Press-and-hold playback speed daemon")
}

func printUsage(fs *flag.FlagSet) func() {
	return func() {
		printVersion()
		fmt.Println()
		fmt.Println("USAGE:")
		fmt.Println("  holdspeed [OPTIONS]")
		fmt.Println()
		fmt.Println("DESCRIPTION:")
		fmt.Println("  Holding the fast-forward key speeds playback up, holding rewind slows it")
		fmt.Println("  down, and releasing returns to normal speed. Speeds snap to a fixed")
		fmt.Println("  catalog between 0.0625x and 8x and are applied to the player over")
		fmt.Println("  its control websocket.")
		fmt.Println()
		fmt.Println("OPTIONS:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("EXAMPLES:")
		fmt.Println("  holdspeed -config /etc/holdspeed.yaml")
		fmt.Println("  holdspeed -input-device /dev/input/event4 -settings-backend memory")
		fmt.Println()
		fmt.Println("NOTES:")
		fmt.Println("  - Requires read access to input devices (run as root or add user to 'input' group)")
		fmt.Println("  - Use holdspeedctl to send gestures and change settings")
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("holdspeed", flag.ContinueOnError)
	defaults := DefaultConfig()
	var (
		configPath  = fs.String("config", "", "Path to YAML config file")
		showVersion = fs.Bool("version", false, "Print version and exit")

		inputDevice      = fs.String("input-device", "", "Linux input event device carrying the speed keys (overrides input.devices)")
		playerWsURL      = fs.String("player-ws-url", defaults.Player.WsURL, "Player control websocket URL")
		playerTimeoutMS  = fs.Int("player-timeout-ms", defaultReadTimeoutMS, "Timeout in milliseconds for player websocket responses")
		holdTimeoutMS    = fs.Int("hold-timeout-ms", defaultHoldTimeoutMS, "Auto-release a hold if no hold events arrive within this duration (ms, 0 disables)")
		repeatIntervalMS = fs.Int("repeat-interval-ms", defaultRepeatIntervalMS, "Step again every N ms while held (0 = one step per press)")
		settingsBackend  = fs.String("settings-backend", settings.BackendBolt, "Settings store: bolt, badger or memory")
		settingsPath     = fs.String("settings-path", defaults.Settings.Path, "Settings bolt file or badger directory")
		ipcSocketPath    = fs.String("ipc-socket", defaults.IPC.SocketPath, "Unix domain socket path for IPC")
		httpListen       = fs.String("http-listen", defaultHTTPListen, "HTTP API listen address (empty disables)")
		logLevelStr      = fs.String("log-level", "info", "Log level: error, warn, info, debug")
	)
	fs.Usage = printUsage(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		printVersion()
		return nil
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Only flags given explicitly override the file.
	var o FlagOverrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input-device":
			o.InputDevice = inputDevice
		case "player-ws-url":
			o.PlayerWsURL = playerWsURL
		case "player-timeout-ms":
			o.PlayerTimeoutMS = playerTimeoutMS
		case "hold-timeout-ms":
			o.HoldTimeoutMS = holdTimeoutMS
		case "repeat-interval-ms":
			o.RepeatIntervalMS = repeatIntervalMS
		case "settings-backend":
			o.SettingsBackend = settingsBackend
		case "settings-path":
			o.SettingsPath = settingsPath
		case "ipc-socket":
			o.IPCSocketPath = ipcSocketPath
		case "http-listen":
			o.HTTPListen = httpListen
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stdout, logLevel)

	logger.Debug("starting holdspeed", "version", version)
	logger.Debug("configuration",
		"input_devices", cfg.Input.Devices,
		"up_key", cfg.Input.UpKey,
		"down_key", cfg.Input.DownKey,
		"player_ws_url", cfg.Player.WsURL,
		"hold_timeout_ms", cfg.Gesture.HoldTimeoutMS,
		"repeat_interval_ms", cfg.Gesture.RepeatIntervalMS,
		"settings_backend", cfg.Settings.Backend,
		"settings_path", cfg.Settings.Path,
		"ipc_socket", cfg.IPC.SocketPath,
		"http_listen", cfg.HTTP.Listen)

	store, err := settings.Open(settings.Options{
		Backend: cfg.Settings.Backend,
		Path:    ExpandPath(cfg.Settings.Path),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	prefs := settings.New(store, logger)
	defer prefs.Close()

	ctrl := speed.NewController(prefs)

	var files []*os.File
	for _, dev := range cfg.Input.Devices {
		f, err := os.Open(dev)
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			return err
		}
		defer f.Close()
		files = append(files, f)
	}

	player, err := NewPlayerWSClient(cfg.Player.WsURL, logger, cfg.Player.TimeoutMS, cfg.Player.ConnectAttempts)
	if err != nil {
		return fmt.Errorf("connect to player: %w", err)
	}
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	events := make(chan Event, 64)
	broadcasts := make(chan StateBroadcast, 64)

	g.Go(func() error {
		runDaemon(gctx, events, DaemonDeps{
			Player:     player,
			Settings:   prefs,
			Controller: ctrl,
			Broadcasts: broadcasts,
		}, cfg.ToGestureConfig(), NewDaemonState(), cfg.Gesture.UpdateHz, logger)
		return nil
	})

	g.Go(func() error {
		return runIPCServer(gctx, cfg.IPC.SocketPath, events, logger)
	})

	if cfg.HTTP.Listen != "" {
		stateServer := NewStateServer(logger, events, HubConfig{})
		g.Go(func() error {
			stateServer.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			RunBroadcaster(gctx, stateServer.Hub(), broadcasts, logger)
			return nil
		})
		g.Go(func() error {
			return runHTTPServer(gctx, cfg.HTTP.Listen, newRouter(events, stateServer, logger), logger)
		})
	} else {
		// Nobody consumes broadcasts; keep the daemon from filling the queue.
		g.Go(func() error {
			drainBroadcasts(gctx, broadcasts)
			return nil
		})
	}

	if len(files) > 0 {
		g.Go(func() error {
			return runInput(gctx, files, cfg.Keys(), events, logger)
		})
	}

	logger.Info("listening",
		"input_devices", len(files),
		"ipc", cfg.IPC.SocketPath,
		"http", cfg.HTTP.Listen,
		"player_ws", cfg.Player.WsURL)

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// runInput translates key events into gesture actions until ctx is canceled
// or a device fails.
func runInput(ctx context.Context, files []*os.File, keys keyMap, events chan<- Event, logger *slog.Logger) error {
	raw := make(chan inputEvent, 64)
	readErr := make(chan error, len(files))
	startInputReaders(files, raw, readErr)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			logger.Error("input reader stopped", "error", err)
			return fmt.Errorf("input: %w", err)

		case ev := <-raw:
			action, ok := translateInputEvent(ev, keys)
			if !ok {
				continue
			}
			select {
			case events <- ActionEvent{Action: action}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func drainBroadcasts(ctx context.Context, src <-chan StateBroadcast) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-src:
		}
	}
}
