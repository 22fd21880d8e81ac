package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hydration/internal/app"
)

var (
	colorWater   = lipgloss.Color("#3B82F6")
	colorSuccess = lipgloss.Color("#10B981")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWater)

	styleAmount = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWater)

	styleGoalMet = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleError = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)
)

const barWidth = 24

func progressBar(total, goal int) string {
	filled := 0
	if goal > 0 {
		filled = total * barWidth / goal
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if total >= goal && goal > 0 {
		return styleGoalMet.Render(bar)
	}
	return styleAmount.Render(bar)
}

func ml(v int) string {
	return fmt.Sprintf("%d ml", v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTotal(w io.Writer, t *app.DayTotal) {
	fmt.Fprintf(w, "%s  %s\n", styleTitle.Render(t.Day), styleAmount.Render(ml(t.TotalML)))
	fmt.Fprintf(w, "%s %s\n", progressBar(t.TotalML, t.GoalML), styleMuted.Render("of "+ml(t.GoalML)))
	if t.Cached {
		fmt.Fprintln(w, styleMuted.Render("remote store unreachable, showing last known total"))
	}
}

func renderRecord(w io.Writer, r *app.RecordResult) {
	fmt.Fprintf(w, "Added %s at %s\n", styleAmount.Render(ml(r.Entry.AmountML)), r.Entry.Timestamp.Local().Format("15:04"))
	fmt.Fprintf(w, "%s %s / %s\n", progressBar(r.TotalML, r.GoalML), ml(r.TotalML), ml(r.GoalML))
	if r.GoalReached {
		fmt.Fprintln(w, styleGoalMet.Render("Daily goal reached!"))
	}
}

func renderStats(w io.Writer, s *app.DayStats) {
	fmt.Fprintf(w, "%s  %s  %s\n", styleTitle.Render(s.Day), styleAmount.Render(ml(s.TotalML)),
		styleMuted.Render(fmt.Sprintf("%d%% of %s", s.ProgressPct, ml(s.GoalML))))
	if len(s.Items) == 0 {
		fmt.Fprintln(w, styleMuted.Render("no intake recorded"))
		return
	}
	for _, p := range s.Items {
		fmt.Fprintf(w, "  %s  %6s  %s\n", p.Label, ml(p.AmountML), styleMuted.Render("→ "+ml(p.CumulativeTotal)))
	}
}

func renderHistory(w io.Writer, points []app.HistoryPoint) {
	if len(points) == 0 {
		fmt.Fprintln(w, styleMuted.Render("no history yet"))
		return
	}
	for _, p := range points {
		mark := " "
		if p.GoalMet {
			mark = styleGoalMet.Render("✓")
		}
		fmt.Fprintf(w, "%s  %8s %s\n", p.Day, ml(p.TotalML), mark)
	}
}
