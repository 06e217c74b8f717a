package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/config"
	"reel/internal/export"
	"reel/internal/logging"
	"reel/internal/timeline"
)

type sessionMode int

const (
	modeExport sessionMode = iota
	modePlay
)

func (m sessionMode) verb() string {
	if m == modePlay {
		return "play"
	}
	return "export"
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export <composition.toml>",
		Short: "Composite a timeline as fast as the graph accepts frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, modeExport, args[0], manifestPath, jsonOutput)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Write every composited frame as a JSON line to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "play <composition.toml>",
		Short: "Composite a timeline in real time, releasing frames against the wall clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, modePlay, args[0], manifestPath, jsonOutput)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Write every composited frame as a JSON line to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

type resultView struct {
	SessionID           string `json:"session_id"`
	Composition         string `json:"composition"`
	Mode                string `json:"mode"`
	VideoFrameCount     int    `json:"video_frame_count"`
	DurationMs          int64  `json:"duration_ms"`
	RequestedDurationUs int64  `json:"requested_duration_us"`
	Released            int    `json:"released"`
	Forced              int    `json:"forced"`
	Dropped             int    `json:"dropped"`
	Ignored             int    `json:"ignored"`
	Width               int    `json:"width"`
	Height              int    `json:"height"`
	Manifest            string `json:"manifest,omitempty"`
}

func runSession(cmd *cobra.Command, ctx *commandContext, mode sessionMode, compositionArg, manifestArg string, jsonOutput bool) (err error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.loggerFor(cfg)

	path, err := config.ExpandPath(compositionArg)
	if err != nil {
		return fmt.Errorf("resolve composition path: %w", err)
	}
	comp, err := timeline.LoadFile(path)
	if err != nil {
		return err
	}

	opts := []export.Option{export.WithCompositionPath(path)}
	if store, storeErr := ctx.historyStore(cfg); storeErr != nil {
		logging.WarnWithContext(logger, "history unavailable; session will not be recorded", "history_unavailable",
			logging.Error(storeErr),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
		)
	} else {
		opts = append(opts, export.WithHistory(store))
	}

	var out export.Output = export.Discard{}
	var manifest *export.ManifestWriter
	if manifestArg != "" {
		var manifestPath string
		manifestPath, err = config.ExpandPath(manifestArg)
		if err != nil {
			return fmt.Errorf("resolve manifest path: %w", err)
		}
		manifest, err = export.OpenManifest(manifestPath)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, manifest.Close())
		}()
		out = manifest
	}

	var result export.Result
	var runErr error
	switch mode {
	case modePlay:
		result, runErr = export.NewPlayer(cfg, ctx.resolver(cfg), logger, opts...).Play(cmd.Context(), comp, out)
	default:
		result, runErr = export.New(cfg, ctx.resolver(cfg), logger, opts...).Run(cmd.Context(), comp, out)
	}
	if runErr != nil {
		return fmt.Errorf("%s %s: %w", mode.verb(), comp.Name, runErr)
	}

	view := resultView{
		SessionID:           result.SessionID,
		Composition:         comp.Name,
		Mode:                mode.verb(),
		VideoFrameCount:     result.VideoFrameCount,
		DurationMs:          result.DurationMs,
		RequestedDurationUs: result.RequestedDurationUs,
		Released:            result.Released,
		Forced:              result.Forced,
		Dropped:             result.Dropped,
		Ignored:             result.Ignored,
		Width:               result.OutputSize.Width,
		Height:              result.OutputSize.Height,
	}
	if manifest != nil {
		view.Manifest = manifest.Path()
	}
	if jsonOutput {
		return writeJSON(cmd, view)
	}

	rows := [][]string{
		{"Session", view.SessionID},
		{"Composition", view.Composition},
		{"Frames", strconv.Itoa(view.VideoFrameCount)},
		{"Duration", formatMs(view.DurationMs)},
		{"Requested", formatUs(view.RequestedDurationUs)},
		{"Released", strconv.Itoa(view.Released)},
		{"Forced", strconv.Itoa(view.Forced)},
		{"Dropped", strconv.Itoa(view.Dropped)},
		{"Ignored", strconv.Itoa(view.Ignored)},
		{"Output", fmt.Sprintf("%dx%d", view.Width, view.Height)},
	}
	if view.Manifest != "" {
		rows = append(rows, []string{"Manifest", view.Manifest})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}
