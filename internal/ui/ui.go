// Package ui provides the render helpers shared by CLI commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderPass styles a success marker.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn styles a warning marker.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderErr styles an error marker.
func RenderErr(s string) string { return errStyle.Render(s) }

// RenderAccent styles informational highlights.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted styles secondary detail.
func RenderMuted(s string) string { return mutedStyle.Render(s) }
