package display

import (
	"os"
	"strings"

	"github.com/filipexyz/compass/internal/monitor"
	"github.com/muesli/termenv"
)

// Colorizer handles terminal color output with RGB support.
type Colorizer struct {
	profile  termenv.Profile
	disabled bool
}

// NewColorizer creates a colorizer. Colors are also disabled by NO_COLOR and
// TERM=dumb.
func NewColorizer(enabled bool) *Colorizer {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		enabled = false
	}
	return &Colorizer{
		profile:  termenv.ColorProfile(),
		disabled: !enabled,
	}
}

// namedColors maps the color names used by label fragments to RGB hex values.
var namedColors = map[string]string{
	"black":   "#000000",
	"red":     "#FF5555",
	"green":   "#50FA7B",
	"yellow":  "#F1FA8C",
	"blue":    "#6272A4",
	"magenta": "#FF79C6",
	"cyan":    "#8BE9FD",
	"white":   "#F8F8F2",
	"gray":    "#6272A4",
	"grey":    "#6272A4",
	"orange":  "#FFB86C",
	"pink":    "#FF79C6",
	"purple":  "#BD93F9",
}

func (c *Colorizer) resolveColor(color string) termenv.Color {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		return nil
	}
	if hex, ok := namedColors[color]; ok {
		return c.profile.Color(hex)
	}
	// Hex codes and ANSI numbers go straight to the profile.
	return c.profile.Color(color)
}

// Color applies a foreground color to text.
func (c *Colorizer) Color(text, color string) string {
	if c.disabled {
		return text
	}
	col := c.resolveColor(color)
	if col == nil {
		return text
	}
	return termenv.String(text).Foreground(col).String()
}

// Background applies a background color to text.
func (c *Colorizer) Background(text, color string) string {
	if c.disabled {
		return text
	}
	col := c.resolveColor(color)
	if col == nil {
		return text
	}
	return termenv.String(text).Background(col).String()
}

// Bold makes text bold.
func (c *Colorizer) Bold(text string) string {
	if c.disabled {
		return text
	}
	return termenv.String(text).Bold().String()
}

// Dim makes text dimmed.
func (c *Colorizer) Dim(text string) string {
	if c.disabled {
		return text
	}
	return termenv.String(text).Faint().String()
}

// Underline underlines text.
func (c *Colorizer) Underline(text string) string {
	if c.disabled {
		return text
	}
	return termenv.String(text).Underline().String()
}

// Cell applies a table value style. Font sizes have no terminal equivalent.
func (c *Colorizer) Cell(text string, style *monitor.ValueStyle) string {
	if c.disabled || style == nil {
		return text
	}
	s := termenv.String(text)
	if col := c.resolveColor(style.Color); col != nil {
		s = s.Foreground(col)
	}
	if col := c.resolveColor(style.BackgroundColor); col != nil {
		s = s.Background(col)
	}
	return s.String()
}

// IsDisabled returns whether colors are disabled.
func (c *Colorizer) IsDisabled() bool {
	return c.disabled
}
