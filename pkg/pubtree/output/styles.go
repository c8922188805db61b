package output

import "github.com/charmbracelet/lipgloss"

// Color constants using the ANSI 256-color palette, shared by all styled output.
const (
	// ColorPrimary is used for headers and package names (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for added files and clean checks (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for modified and skipped entries (orange).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for deletions, conflicts and drift (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Text styles for result rendering.
var (
	// TitleStyle is used for package headings.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// AddedStyle marks added files.
	AddedStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	// ModifiedStyle marks modified files.
	ModifiedStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// DeletedStyle marks deleted and missing files.
	DeletedStyle = lipgloss.NewStyle().Foreground(ColorDanger)

	// MutedStyle is used for skipped files and annotations.
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// OKStyle is used for the final ok/drift verdict.
	OKStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)

	// DriftStyle is used when a check finds drift.
	DriftStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
)
