// Package tui renders the terminal screens: the interactive chat and the
// badges and tints shared with the command output.
package tui

import (
	"strings"

	"agromitra/internal/app"
	"agromitra/internal/models"

	"github.com/charmbracelet/lipgloss"
)

const defaultTint = lipgloss.Color("8")

var classificationTints = map[string]lipgloss.Color{
	"crop_recommendation": lipgloss.Color("10"),
	"harvesting_guidance": lipgloss.Color("11"),
	"pest_control":        lipgloss.Color("9"),
	"irrigation":          lipgloss.Color("12"),
	"fertilization":       lipgloss.Color("13"),
	"market_price":        lipgloss.Color("14"),
}

// Tint is the colour of a chat classification badge.
func Tint(classification string) lipgloss.Color {
	if c, ok := classificationTints[classification]; ok {
		return c
	}
	return defaultTint
}

// ClassificationLabel turns "pest_control" into "pest control".
func ClassificationLabel(classification string) string {
	return strings.ReplaceAll(classification, "_", " ")
}

var timingTints = map[app.Timing]lipgloss.Color{
	app.TimingCompleted: lipgloss.Color("10"),
	app.TimingOverdue:   lipgloss.Color("9"),
	app.TimingToday:     lipgloss.Color("11"),
	app.TimingUpcoming:  lipgloss.Color("12"),
	app.TimingFuture:    defaultTint,
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userStyle  = lipgloss.NewStyle().Bold(true)
)

// Badge renders text as a coloured label.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render("[" + text + "]")
}

// TimingBadge renders the timing of a calendar activity.
func TimingBadge(t app.Timing) string {
	c, ok := timingTints[t]
	if !ok {
		c = defaultTint
	}
	return Badge(string(t), c)
}

// OrderBadge renders an order status.
func OrderBadge(status models.OrderStatus) string {
	switch status {
	case models.OrderDelivered:
		return Badge(string(status), lipgloss.Color("10"))
	case models.OrderRejected, models.OrderCancelled:
		return Badge(string(status), lipgloss.Color("9"))
	case models.OrderAccepted, models.OrderConfirmed:
		return Badge(string(status), lipgloss.Color("12"))
	default:
		return Badge(string(status), lipgloss.Color("11"))
	}
}

// ListingBadge renders a listing status.
func ListingBadge(status models.ListingStatus) string {
	if status == models.ListingActive {
		return Badge(string(status), lipgloss.Color("10"))
	}
	return Badge(string(status), defaultTint)
}

// UserBadge renders the moderation state of an account.
func UserBadge(u models.AdminUser) string {
	if u.Active() {
		return Badge(u.Badge(), lipgloss.Color("10"))
	}
	return Badge(u.Badge(), lipgloss.Color("9"))
}

// Title renders a heading.
func Title(text string) string { return titleStyle.Render(text) }

// Faint renders secondary text.
func Faint(text string) string { return faintStyle.Render(text) }

// Error renders an error line.
func Error(text string) string { return errorStyle.Render(text) }
