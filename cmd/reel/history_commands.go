package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/history"
)

type sessionView struct {
	ID                  string             `json:"id"`
	Composition         string             `json:"composition"`
	CompositionPath     string             `json:"composition_path,omitempty"`
	Mode                string             `json:"mode"`
	Status              string             `json:"status"`
	Error               string             `json:"error,omitempty"`
	Frames              int                `json:"frames"`
	DurationMs          int64              `json:"duration_ms"`
	RequestedDurationUs int64              `json:"requested_duration_us"`
	Dropped             int                `json:"dropped"`
	Forced              int                `json:"forced"`
	Width               int                `json:"width"`
	Height              int                `json:"height"`
	Manifest            string             `json:"manifest,omitempty"`
	StartedAt           time.Time          `json:"started_at"`
	FinishedAt          *time.Time         `json:"finished_at,omitempty"`
	Entries             []sessionEntryView `json:"entries,omitempty"`
}

type sessionEntryView struct {
	Index      int    `json:"index"`
	Source     string `json:"source"`
	Kind       string `json:"kind"`
	StartUs    int64  `json:"start_us"`
	DurationUs int64  `json:"duration_us"`
	Frames     int    `json:"frames"`
}

func newSessionView(s *history.Session) sessionView {
	view := sessionView{
		ID:                  s.ID,
		Composition:         s.Composition,
		CompositionPath:     s.CompositionPath,
		Mode:                string(s.Mode),
		Status:              string(s.Status),
		Error:               s.ErrorMessage,
		Frames:              s.FrameCount,
		DurationMs:          s.DurationMs,
		RequestedDurationUs: s.RequestedDurationUs,
		Dropped:             s.DroppedFrames,
		Forced:              s.ForcedFrames,
		Width:               s.OutputWidth,
		Height:              s.OutputHeight,
		Manifest:            s.ManifestPath,
		StartedAt:           s.StartedAt,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		view.FinishedAt = &finished
	}
	for _, e := range s.Entries {
		view.Entries = append(view.Entries, sessionEntryView{
			Index:      e.Index,
			Source:     e.Source,
			Kind:       e.Kind,
			StartUs:    e.StartUs,
			DurationUs: e.DurationUs,
			Frames:     e.FrameCount,
		})
	}
	return view
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded export and playback sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.historyStore(cfg)
			if err != nil {
				return err
			}
			sessions, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				views := make([]sessionView, 0, len(sessions))
				for _, s := range sessions {
					views = append(views, newSessionView(s))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					s.Composition,
					string(s.Mode),
					renderStatus(s.Status, colorize),
					strconv.Itoa(s.FrameCount),
					formatMs(s.DurationMs),
					formatTime(s.StartedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Composition", "Mode", "Status", "Frames", "Duration", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sessions as JSON")

	cmd.AddCommand(newHistoryRemoveCommand(ctx))
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.historyStore(cfg)
			if err != nil {
				return err
			}
			session, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := store.Remove(cmd.Context(), session.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", session.ID)
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded session and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.historyStore(cfg)
			if err != nil {
				return err
			}
			session, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := newSessionView(session)
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Session", view.ID},
				{"Composition", view.Composition},
				{"Mode", view.Mode},
				{"Status", renderStatus(session.Status, shouldColorize(out))},
				{"Frames", strconv.Itoa(view.Frames)},
				{"Duration", formatMs(view.DurationMs)},
				{"Requested", formatUs(view.RequestedDurationUs)},
				{"Dropped", strconv.Itoa(view.Dropped)},
				{"Forced", strconv.Itoa(view.Forced)},
				{"Output", fmt.Sprintf("%dx%d", view.Width, view.Height)},
				{"Started", formatTime(session.StartedAt)},
				{"Finished", formatTime(session.FinishedAt)},
			}
			if view.CompositionPath != "" {
				rows = append(rows, []string{"File", view.CompositionPath})
			}
			if view.Manifest != "" {
				rows = append(rows, []string{"Manifest", view.Manifest})
			}
			if view.Error != "" {
				rows = append(rows, []string{"Error", view.Error})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

			if len(view.Entries) == 0 {
				return nil
			}
			entryRows := make([][]string, 0, len(view.Entries))
			for _, e := range view.Entries {
				entryRows = append(entryRows, []string{
					strconv.Itoa(e.Index),
					e.Source,
					e.Kind,
					formatUs(e.StartUs),
					formatUs(e.DurationUs),
					strconv.Itoa(e.Frames),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Source", "Kind", "Start", "Duration", "Frames"},
				entryRows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the session as JSON")
	return cmd
}
