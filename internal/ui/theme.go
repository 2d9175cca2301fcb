package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/stiffy-wanderers/internal/presentation"
	"github.com/i474232898/stiffy-wanderers/internal/progress"
)

// Stiffy theme for the CLI.

const (
	IconRock    = "🪨"
	IconRain    = "🌧️"
	IconWind    = "🌬️"
	IconWater   = "💧"
	IconSparkle = "✨"
	IconMap     = "🗺️"
	IconTrophy  = "🏆"
	IconWarn    = "⚠️"
	IconError   = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

const barWidth = 20

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// ProgressBar renders v in [0,1] as a fixed-width bar with a percentage.
func ProgressBar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v*barWidth + 0.5)
	bar := Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %5.1f%%", bar, v*100)
}

// StageText names a stage, in gold once the journey is complete.
func StageText(s progress.Stage) string {
	label := fmt.Sprintf("%d · %s", s.Level, s.Title)
	if s.Level >= progress.StageFor(progress.MaxValue).Level {
		return Gold.Render(label)
	}
	return H2.Render(label)
}

// Gate renders whether a daily gate is spent.
func Gate(spent bool) string {
	if spent {
		return Good.Render("done today")
	}
	return Warn.Render("open")
}

// OverlayText describes the overlay the app would show.
func OverlayText(p presentation.Prompt) string {
	var s string
	switch p.Overlay {
	case presentation.OverlayCompletion:
		s = IconTrophy + " " + Gold.Render("Stiffy has become a Weathered Wanderer!")
	case presentation.OverlayLevelUp:
		s = IconSparkle + " " + Gold.Render(fmt.Sprintf("LEVEL UP to stage %d", p.Stage))
	case presentation.OverlayNewArea:
		s = IconMap + " " + H2.Render("New area: "+p.Area)
	case presentation.OverlayOnboarding:
		s = IconRock + " " + H2.Render("Hello! Meet Stiffy, a rock in training.")
	default:
		return Muted.Render("none")
	}
	if p.Pending > 0 {
		s += " " + Muted.Render(fmt.Sprintf("(+%d queued)", p.Pending))
	}
	return s
}
