package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/beatblocks/internal/session"
	"github.com/kingrea/beatblocks/internal/toggle"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	blockBase = lipgloss.NewStyle().
			Width(8).
			Height(3).
			Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			MarginRight(1)
	blockActive = blockBase.
			Background(lipgloss.Color("#4CAF50")).
			Foreground(lipgloss.Color("#0B0B0B")).
			BorderForeground(lipgloss.Color("#4CAF50"))
	blockPending = blockBase.
			Foreground(lipgloss.Color("#F7B801")).
			BorderForeground(lipgloss.Color("#F7B801"))
	blockIdle = blockBase.
			Foreground(lipgloss.Color("#666666")).
			BorderForeground(lipgloss.Color("#333333"))

	stateStyles = map[session.State]lipgloss.Style{
		session.StateLeadIn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		session.StateRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		session.StateSuspended: lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		session.StateTornDown:  lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
	}

	phaseGlyphs = []rune("▁▂▃▄▅▆▇█")
)

// View renders the current frame.
func (a *App) View() string {
	if a.quitting {
		return mutedStyle.Render("Session saved. Bye.") + "\n"
	}
	sections := []string{
		headerStyle.Render("▦ BEATBLOCKS"),
		panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			a.renderStatus(),
			"",
			a.renderBlocks(),
		)),
	}
	if journal := a.renderJournal(); journal != "" {
		sections = append(sections, journal)
	}
	footer := a.statusMsg
	if a.err != nil {
		footer = errStyle.Render(a.err.Error())
	}
	sections = append(sections, mutedStyle.Render(footer), a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func (a *App) renderStatus() string {
	s := a.session
	state := s.State()
	style, ok := stateStyles[state]
	if !ok {
		style = mutedStyle
	}
	sched := s.Schedule()
	lines := []string{
		fmt.Sprintf("%s · sub-beat %3d/%d %s · tempo x%.1f", style.Render(strings.ToUpper(string(state))),
			s.Index(), sched.BeatIndexMax, phaseGlyph(s.Phase()), s.Tempo()),
		mutedStyle.Render(fmt.Sprintf("track %s · switch every %d sub-beats · %s resync",
			sched.Track, sched.SwitchPeriod(), resyncLabel(sched.LegacyResync))),
	}
	if sched.LeadIn > 0 && !s.Started() {
		done := float64(sched.LeadIn-s.LeadInRemaining()) / float64(sched.LeadIn)
		lines = append(lines, fmt.Sprintf("lead-in %s %d left", a.progress.ViewAs(done), s.LeadInRemaining()))
	}
	if a.pausedTempo > 0 {
		lines = append(lines, mutedStyle.Render("rhythm paused"))
	}
	if a.envGroups != s.Registry().Len() {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d groups on re-entry", a.envGroups)))
	}
	return strings.Join(lines, "\n")
}

// phaseGlyph draws how far the clock is through the current sub-beat.
func phaseGlyph(phase float64) string {
	i := int(phase * float64(len(phaseGlyphs)))
	i = max(0, min(len(phaseGlyphs)-1, i))
	return string(phaseGlyphs[i])
}

func resyncLabel(legacy bool) string {
	if legacy {
		return "legacy"
	}
	return "modern"
}

func (a *App) renderBlocks() string {
	groups := a.session.Groups()
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, a.renderBlock(g))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func (a *App) renderBlock(g toggle.Group) string {
	label := fmt.Sprintf("%d", g.Index+1)
	style := blockIdle
	switch {
	case g.Activated && g.Pending:
		style = blockActive.BorderForeground(lipgloss.Color("#F7B801"))
	case g.Activated:
		style = blockActive
	case g.Pending:
		style = blockPending
	}
	if g.Index < len(a.flash) && a.flash[g.Index] > 0 {
		style = style.Bold(true)
		label = "■ " + label
	}
	return style.Render(label)
}

func (a *App) renderJournal() string {
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	name := filepath.Base(a.logbook.Path())
	head := titleStyle.Render(fmt.Sprintf("JOURNAL · %s (%d)", name, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return panelStyle.Render(head + "\n" + body)
}
