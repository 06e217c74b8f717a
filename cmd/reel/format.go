package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// writeJSON prints v indented, followed by a newline.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}

func formatMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func formatUs(us int64) string {
	return (time.Duration(us) * time.Microsecond).String()
}

func formatRate(rate float64) string {
	if rate <= 0 {
		return "-"
	}
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
