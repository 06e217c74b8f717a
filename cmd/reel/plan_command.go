package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/config"
	"reel/internal/sequencer"
	"reel/internal/timeline"
)

type planEntryView struct {
	Index      int     `json:"index"`
	Source     string  `json:"source"`
	Kind       string  `json:"kind"`
	StartUs    int64   `json:"start_us"`
	DurationUs int64   `json:"duration_us"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Frames     int     `json:"frames"`
}

type planView struct {
	Sequence            int             `json:"sequence"`
	Frames              int             `json:"frames"`
	ImageFrames         int             `json:"image_frames"`
	VideoFrames         int             `json:"video_frames"`
	RequestedDurationUs int64           `json:"requested_duration_us"`
	DurationMs          int64           `json:"duration_ms"`
	Entries             []planEntryView `json:"entries"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan <composition.toml>",
		Short: "Count the frames each entry contributes without compositing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve composition path: %w", err)
			}
			comp, err := timeline.LoadFile(path)
			if err != nil {
				return err
			}

			logger := ctx.loggerFor(cfg)
			var views []planView
			for i, seq := range comp.Sequences() {
				tally, err := sequencer.Plan(cmd.Context(), seq, ctx.resolver(cfg), logger)
				if err != nil {
					return fmt.Errorf("plan sequence %d: %w", i, err)
				}
				views = append(views, newPlanView(i, tally))
			}

			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			for _, view := range views {
				fmt.Fprintf(out, "Sequence %d: %d frames (%d image, %d video), %s of %s requested\n",
					view.Sequence, view.Frames, view.ImageFrames, view.VideoFrames,
					formatMs(view.DurationMs), formatUs(view.RequestedDurationUs))
				rows := make([][]string, 0, len(view.Entries))
				for _, e := range view.Entries {
					rows = append(rows, []string{
						strconv.Itoa(e.Index),
						e.Source,
						e.Kind,
						formatUs(e.StartUs),
						formatUs(e.DurationUs),
						formatRate(e.FrameRate),
						strconv.Itoa(e.Frames),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Source", "Kind", "Start", "Duration", "FPS", "Frames"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan as JSON")
	return cmd
}

func newPlanView(index int, tally sequencer.Tally) planView {
	view := planView{
		Sequence:            index,
		Frames:              tally.Frames(),
		ImageFrames:         tally.ImageFrames(),
		VideoFrames:         tally.VideoFrames(),
		RequestedDurationUs: tally.RequestedDurationUs,
		DurationMs:          tally.RealizedDurationMs(),
	}
	for _, e := range tally.Entries {
		view.Entries = append(view.Entries, planEntryView{
			Index:      e.Index,
			Source:     e.Source,
			Kind:       e.Kind.String(),
			StartUs:    e.StartUs,
			DurationUs: e.DurationUs,
			FrameRate:  e.FrameRate,
			Frames:     e.Frames,
		})
	}
	return view
}
