package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/presets"
	"github.com/Sengkue/video-generator/internal/render"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

func printPresets(w io.Writer, table *presets.Table) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Available presets"))
	b.WriteString("\n")
	for _, p := range table.List() {
		fmt.Fprintf(&b, "\n%-18s %-11s %-6s %s",
			p.Name, p.Size(), p.AspectRatio, infoStyle.Render(p.Description))
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

func printTitleStyle(w io.Writer, s config.TitleStyleConfig) {
	font := s.Font
	if font == "" {
		font = "system default"
	}
	rows := [][2]string{
		{"fontsize", fmt.Sprint(s.FontSize)},
		{"color", s.Color},
		{"stroke_color", s.StrokeColor},
		{"stroke_width", fmt.Sprint(s.StrokeWidth)},
		{"font", font},
		{"top_offset", fmt.Sprint(s.TopOffset)},
		{"opacity", fmt.Sprint(s.Opacity)},
		{"source", s.Source},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Title style"))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%-13s %s", r[0], r[1])
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

func printCreated(w io.Writer, path string, elapsed time.Duration) {
	size := ""
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(w, "%s %s %s\n",
		successStyle.Render("Video created:"),
		path,
		infoStyle.Render(fmt.Sprintf("(%s, %s)", size, elapsed.Round(100*time.Millisecond))))
}

func printResult(w io.Writer, r render.Result) {
	switch r.Status {
	case render.StatusSuccess:
		size := ""
		if info, err := os.Stat(r.Output); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Fprintf(w, "%s %s -> %s %s\n",
			successStyle.Render("ok  "), r.AudioFile, r.Output,
			infoStyle.Render(fmt.Sprintf("(%s, %s)", size, r.Elapsed.Round(100*time.Millisecond))))
	default:
		fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("fail"), r.AudioFile, r.Err)
	}
}

// printBatchSummary prints one line per result and a total, returning the
// number of failures
func printBatchSummary(w io.Writer, results []render.Result) int {
	if len(results) == 0 {
		fmt.Fprintln(w, infoStyle.Render("No audio files found"))
		return 0
	}

	fmt.Fprintln(w, headerStyle.Render("Batch results"))
	var failed int
	for _, r := range results {
		if r.Status == render.StatusFailed {
			failed++
		}
		printResult(w, r)
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", len(results)-failed, failed)
	if failed > 0 {
		fmt.Fprintln(w, errorStyle.Render(summary))
	} else {
		fmt.Fprintln(w, successStyle.Render(summary))
	}
	return failed
}
