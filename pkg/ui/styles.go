package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette using terminal colors for consistency
	ColorSuccess = lipgloss.AdaptiveColor{Light: "2", Dark: "2"} // Green
	ColorError   = lipgloss.AdaptiveColor{Light: "1", Dark: "1"} // Red
	ColorPrimary = lipgloss.AdaptiveColor{Light: "5", Dark: "5"} // Magenta/Purple
	ColorInfo    = lipgloss.AdaptiveColor{Light: "6", Dark: "6"} // Cyan
	ColorMuted   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"} // Gray
	ColorWarning = lipgloss.AdaptiveColor{Light: "3", Dark: "3"} // Yellow
	ColorAccent  = lipgloss.AdaptiveColor{Light: "4", Dark: "4"} // Blue
	ColorDefault = lipgloss.AdaptiveColor{Light: "0", Dark: "7"}

	// Base styles
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StylePrimary lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleAccent  lipgloss.Style

	// Component styles
	StyleTitle       lipgloss.Style
	StyleHeader      lipgloss.Style
	StyleSubtle      lipgloss.Style
	StyleBold        lipgloss.Style
	StyleTableHeader lipgloss.Style
	StyleTableRow    lipgloss.Style
	StyleTableRowAlt lipgloss.Style
	StyleTableBorder lipgloss.Style

	// Record rows
	StyleMatch    lipgloss.Style // query match inside a cell
	StyleDisposed lipgloss.Style // asset tagged for disposal
	StyleTarget   lipgloss.Style // row a link jumped to
	StyleSelected lipgloss.Style // cursor row
	StyleEditing  lipgloss.Style // cell being edited

	// Status icons
	IconSuccess = "✔"
	IconError   = "✘"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconScan    = "▮▯▮"
	IconPark    = "⌂"
)

// Themes accepted by SetTheme
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeNone  = "none"
)

func init() {
	// Initialize with default (auto) theme
	SetTheme(ThemeAuto)
}

// SetTheme applies the specified color theme ("auto", "dark", "light", "none")
func SetTheme(theme string) {
	switch theme {
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case ThemeNone:
		plainStyles()
		return
	default:
		// Auto: lipgloss detects automatically
	}

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleAccent = lipgloss.NewStyle().Foreground(ColorAccent)

	StyleTitle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Underline(true)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSubtle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	StyleBold = lipgloss.NewStyle().Bold(true)

	StyleTableHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Align(lipgloss.Left)
	StyleTableRow = lipgloss.NewStyle().Foreground(ColorDefault)
	StyleTableRowAlt = lipgloss.NewStyle().Foreground(ColorDefault).Faint(true)
	StyleTableBorder = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleMatch = lipgloss.NewStyle().Background(ColorWarning).Foreground(lipgloss.Color("0"))
	StyleDisposed = lipgloss.NewStyle().Foreground(ColorError)
	StyleTarget = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleSelected = lipgloss.NewStyle().Reverse(true)
	StyleEditing = lipgloss.NewStyle().Foreground(ColorAccent).Underline(true)
}

// plainStyles disables colour but keeps emphasis that survives monochrome
// terminals.
func plainStyles() {
	plain := lipgloss.NewStyle()
	for _, s := range []*lipgloss.Style{
		&StyleSuccess, &StyleError, &StylePrimary, &StyleInfo, &StyleMuted,
		&StyleWarning, &StyleAccent, &StyleTitle, &StyleHeader, &StyleSubtle,
		&StyleBold, &StyleTableHeader, &StyleTableRow, &StyleTableRowAlt,
		&StyleTableBorder, &StyleDisposed, &StyleTarget,
	} {
		*s = plain
	}
	StyleMatch = lipgloss.NewStyle().Underline(true)
	StyleSelected = lipgloss.NewStyle().Reverse(true)
	StyleEditing = lipgloss.NewStyle().Underline(true)
}

// FormatSuccess returns a success message with icon
func FormatSuccess(msg string) string {
	return StyleSuccess.Render(IconSuccess + " " + msg)
}

// FormatError returns an error message with icon
func FormatError(msg string) string {
	return StyleError.Render(IconError + " " + msg)
}

// FormatInfo returns an info message with icon
func FormatInfo(msg string) string {
	return StyleInfo.Render(IconInfo + " " + msg)
}

// FormatWarning returns a warning message with icon
func FormatWarning(msg string) string {
	return StyleWarning.Render(IconWarning + " " + msg)
}

// FormatTitle returns a formatted title
func FormatTitle(title string) string {
	return StyleTitle.Render(title)
}

// FormatMuted returns muted/subtle text
func FormatMuted(text string) string {
	return StyleMuted.Render(text)
}

// FormatBold returns bold text
func FormatBold(text string) string {
	return StyleBold.Render(text)
}

// Mark renders a query match
func Mark(text string) string {
	return StyleMatch.Render(text)
}
