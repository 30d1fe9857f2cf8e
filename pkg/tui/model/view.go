package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lanternhq/lantern/pkg/core"
	"github.com/lanternhq/lantern/pkg/stream"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	stateConnected  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stateConnecting = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stateClosed     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	sevError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	sevWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sevInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sevDebug   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sevDefault = lipgloss.NewStyle()

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if !a.ready {
		return "loading..."
	}
	return a.renderHeader() + "\n" + a.viewport.View() + "\n" + a.renderStatusBar()
}

func (a App) renderHeader() string {
	title := titleStyle.Render(" Lantern ")
	src := a.currentSource().Name
	if src == "" {
		src = "default"
	}
	pos := ""
	if len(a.sources) > 1 {
		pos = dimStyle.Render(fmt.Sprintf(" [%d/%d]", a.srcIdx+1, len(a.sources)))
	}
	return title + "— " + src + pos
}

func (a App) renderStatusBar() string {
	left := a.stateLabel()
	if a.follow {
		left += dimStyle.Render("  following")
	} else {
		left += dimStyle.Render("  scrolled")
	}
	if a.statusMsg != "" {
		left += "  " + stateClosed.Render(a.statusMsg)
	}

	right := "[/]:source r:reconnect G:bottom q:quit"

	gap := a.width - lipgloss.Width(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + helpStyle.Render(right)
}

func (a App) stateLabel() string {
	label := a.state.String()
	switch a.state {
	case stream.StateOpen:
		return stateConnected.Render("● " + label)
	case stream.StateConnecting:
		return stateConnecting.Render("◌ " + label)
	default:
		if a.gaveUp {
			label += " (gave up)"
		}
		return stateClosed.Render("○ " + label)
	}
}

// renderLine styles a line by its severity.
func renderLine(l core.LogLine) string {
	switch core.Classify(l.Line) {
	case core.SeverityError:
		return sevError.Render(l.Line)
	case core.SeverityWarn:
		return sevWarn.Render(l.Line)
	case core.SeverityInfo:
		return sevInfo.Render(l.Line)
	case core.SeverityDebug:
		return sevDebug.Render(l.Line)
	default:
		return sevDefault.Render(l.Line)
	}
}
