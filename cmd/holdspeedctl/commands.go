package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"holdspeed/internal/control"
)

const defaultHTTPAddr = "http://127.0.0.1:3002"

type globalOptions struct {
	socketPath string
	httpAddr   string
	outputJSON bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "holdspeedctl",
		Short: "Control the holdspeed playback speed daemon",
		Long: `holdspeedctl sends speed gestures and settings changes to a running
holdspeed daemon and reports its state.

Examples:
  holdspeedctl up
  holdspeedctl hold down && sleep 1 && holdspeedctl release
  holdspeedctl settings set --multiplier 1.5 --divider 3
  holdspeedctl status --json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.socketPath, "socket", control.DefaultSocketPath, "daemon unix socket path")
	root.PersistentFlags().StringVar(&opts.httpAddr, "http", defaultHTTPAddr, "daemon HTTP API base URL")
	root.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "output as JSON (for piping)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 3*time.Second, "HTTP request timeout")

	root.AddCommand(
		actionCmd(opts, "up", "Step the speed up once", control.SpeedStep{Direction: control.Up}),
		actionCmd(opts, "down", "Step the speed down once", control.SpeedStep{Direction: control.Down}),
		actionCmd(opts, "release", "Release a held gesture and return to normal speed", control.SpeedRelease{}),
		actionCmd(opts, "reset", "Return to normal speed", control.SpeedReset{}),
		holdCmd(opts),
		settingsCmd(opts),
		statusCmd(opts),
		catalogCmd(opts),
	)
	return root
}

func actionCmd(opts *globalOptions, use, short string, action control.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, opts, action)
		},
	}
}

func holdCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "hold <up|down>",
		Short:     "Start a press-and-hold gesture",
		Long:      "Start a press-and-hold gesture. The daemon releases it after its hold timeout unless held again.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir int
			switch strings.ToLower(args[0]) {
			case "up":
				dir = control.Up
			case "down":
				dir = control.Down
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[0])
			}
			return send(cmd, opts, control.SpeedHeld{Direction: dir})
		},
	}
}

func settingsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persisted speed settings",
	}

	var (
		enabled    bool
		multiplier float64
		divider    float64
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Long: `Change one or more settings. Only the flags given are written.

Factors outside [1.1, 4.0] are stored as given and clamped when read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u control.SettingsUpdate
			if cmd.Flags().Changed("enabled") {
				u.Enabled = &enabled
			}
			if cmd.Flags().Changed("multiplier") {
				u.SpeedUpMultiplier = &multiplier
			}
			if cmd.Flags().Changed("divider") {
				u.SlowDownDivider = &divider
			}
			if err := u.Validate(); err != nil {
				return err
			}
			return send(cmd, opts, u)
		},
	}
	set.Flags().BoolVar(&enabled, "enabled", true, "enable dynamic speed")
	set.Flags().Float64Var(&multiplier, "multiplier", 2.0, "speed-up multiplier")
	set.Flags().Float64Var(&divider, "divider", 2.0, "slow-down divider")

	cmd.AddCommand(set)
	return cmd
}

func statusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon's current speed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st status
			raw, err := getJSON(cmd.Context(), opts, "/api/speed", &st)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			return st.print(cmd.OutOrStdout())
		},
	}
}

func catalogCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the supported playback speeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cat struct {
				Speeds []float64 `json:"speeds"`
			}
			raw, err := getJSON(cmd.Context(), opts, "/api/catalog", &cat)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			parts := make([]string, len(cat.Speeds))
			for i, s := range cat.Speeds {
				parts[i] = fmt.Sprintf("%gx", s)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return err
		},
	}
}

func send(cmd *cobra.Command, opts *globalOptions, action control.Action) error {
	if err := control.Send(opts.socketPath, action); err != nil {
		return err
	}
	if opts.outputJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(control.Response{Status: "ok"})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return err
}

// status mirrors the daemon's /api/speed response.
type status struct {
	Speed         float64 `json:"speed"`
	PlayerRate    float64 `json:"player_rate"`
	PlayerKnown   bool    `json:"player_rate_known"`
	HeldDirection int     `json:"held_direction"`
	Config        struct {
		Enabled           bool    `json:"enabled"`
		SpeedUpMultiplier float64 `json:"speed_up_multiplier"`
		SlowDownDivider   float64 `json:"slow_down_divider"`
	} `json:"config"`
}

func (s status) print(w io.Writer) error {
	player := "unknown"
	if s.PlayerKnown {
		player = fmt.Sprintf("%gx", s.PlayerRate)
	}
	held := "none"
	switch s.HeldDirection {
	case control.Up:
		held = "up"
	case control.Down:
		held = "down"
	}
	_, err := fmt.Fprintf(w, "speed:      %gx\nplayer:     %s\nheld:       %s\nenabled:    %t\nmultiplier: %g\ndivider:    %g\n",
		s.Speed, player, held, s.Config.Enabled, s.Config.SpeedUpMultiplier, s.Config.SlowDownDivider)
	return err
}

func getJSON(ctx context.Context, opts *globalOptions, path string, v any) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	url := strings.TrimRight(opts.httpAddr, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return nil, fmt.Errorf("GET %s: %s", url, apiErr.Error)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return raw, nil
}
