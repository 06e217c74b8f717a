package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reel/internal/history"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var titleCaser = cases.Title(language.English)

// statusLabel turns a stored status such as "source_exhausted" into
// "Source Exhausted".
func statusLabel(status history.Status) string {
	return titleCaser.String(strings.ReplaceAll(string(status), "_", " "))
}

func statusColor(status history.Status) string {
	switch status {
	case history.StatusCompleted:
		return ansiGreen
	case history.StatusRunning:
		return ansiBlue
	case history.StatusCanceled:
		return ansiYellow
	default:
		return ansiRed
	}
}

func renderStatus(status history.Status, colorize bool) string {
	label := statusLabel(status)
	if !colorize {
		return label
	}
	return statusColor(status) + label + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
