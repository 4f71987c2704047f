// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     tui
// Description: Styles for the listening TUI
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/souffleur/internal/listener"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2)

	ListeningStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)
)

// Transcript styles
var (
	LivePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	LiveTextStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Italic(true)

	QAPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	QuestionStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	AnswerStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Icons
const (
	IconListening = "● "
	IconPaused    = "◌ "
	IconQuestion  = "Q "
	IconAnswer    = "A "
)

// Logo
const Logo = "souffleur"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}

// RenderState renders the segmentation state badge
func RenderState(state listener.State) string {
	switch state {
	case listener.StateAccumulating:
		return lipgloss.NewStyle().Foreground(ColorSecondary).Render("[" + state.String() + "]")
	case listener.StatePendingConfirm:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render("[" + state.String() + "]")
	default:
		return HelpDescStyle.Render("[" + state.String() + "]")
	}
}
