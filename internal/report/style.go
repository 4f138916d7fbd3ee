package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB colour.
type Color struct {
	R, G, B int
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HexColor parses "#rrggbb". Malformed input yields black.
func HexColor(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

// Palette.
var (
	PrimaryBlue = HexColor("#1e3a8a")
	AccentGold  = HexColor("#f59e0b")
	LightGrey   = HexColor("#f8fafc")
	DarkGrey    = HexColor("#374151")
	Green       = HexColor("#10b981")
	White       = Color{R: 255, G: 255, B: 255}
)

// TextStyle selects the font treatment of a paragraph.
type TextStyle int

const (
	StyleBody TextStyle = iota
	StyleHighlight
	StyleCaption
	StyleMuted
)

// Geometry is the fixed page layout in millimetres. The header region is
// computed once from its parts and every non-cover page uses the same body
// top, so headers line up without measuring pages.
type Geometry struct {
	PageWidth     float64
	PageHeight    float64
	Margin        float64
	LogoHeight    float64
	TaglineHeight float64
	HeaderSpacing float64
}

// DefaultGeometry is A4 portrait with 0.75in margins.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:     210,
		PageHeight:    297,
		Margin:        19.05,
		LogoHeight:    12,
		TaglineHeight: 6,
		HeaderSpacing: 8,
	}
}

// HeaderTop is the y of the header region on non-cover pages.
func (g Geometry) HeaderTop() float64 { return g.Margin }

// HeaderHeight is logo + tagline + spacing.
func (g Geometry) HeaderHeight() float64 {
	return g.LogoHeight + g.TaglineHeight + g.HeaderSpacing
}

// BodyTop returns where body content starts.
func (g Geometry) BodyTop(cover bool) float64 {
	if cover {
		return g.Margin
	}
	return g.Margin + g.HeaderHeight()
}

// BodyBottom returns where body content must end.
func (g Geometry) BodyBottom() float64 { return g.PageHeight - g.Margin }

// BodyWidth is the printable width.
func (g Geometry) BodyWidth() float64 { return g.PageWidth - 2*g.Margin }

// BodyHeight is the usable height of a page.
func (g Geometry) BodyHeight(cover bool) float64 {
	return g.BodyBottom() - g.BodyTop(cover)
}
