package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatGBP(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{290000, "£290,000"},
		{13456.4, "£13,456"},
		{15073.6, "£15,074"},
		{0, "£0"},
		{999.5, "£1,000"},
		{-1250, "-£1,250"},
		{-0.2, "£0"},
		{1234567, "£1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatGBP(tt.in), "%v", tt.in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "11.4%", FormatPercent(11.3793))
	assert.Equal(t, "17.8%", FormatPercent(17.767))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "0.0%", FormatPercent(-0.01))
	assert.Equal(t, "20%", FormatRate(20))
	assert.Equal(t, "5.8%", FormatRate(5.8))
}

func TestOrdinalDate(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{1, "1st March 2026"},
		{2, "2nd March 2026"},
		{3, "3rd March 2026"},
		{4, "4th March 2026"},
		{11, "11th March 2026"},
		{12, "12th March 2026"},
		{13, "13th March 2026"},
		{21, "21st March 2026"},
		{22, "22nd March 2026"},
		{23, "23rd March 2026"},
		{31, "31st March 2026"},
	}
	for _, tt := range tests {
		d := time.Date(2026, time.March, tt.day, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, OrdinalDate(d))
	}
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "5, Ridley Road - Investment Report.pdf", DefaultFilename("5, Ridley Road"))
	assert.Equal(t, "Flat 2-3 Dock St - Investment Report.pdf", DefaultFilename(" Flat 2/3 Dock St "))
	assert.Equal(t, "Investment Report.pdf", DefaultFilename("  "))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, Color{R: 0x1e, G: 0x3a, B: 0x8a}, HexColor("#1e3a8a"))
	assert.Equal(t, "#f59e0b", AccentGold.Hex())
	assert.Equal(t, Color{}, HexColor("nope"))
}

func TestGeometry(t *testing.T) {
	g := DefaultGeometry()
	assert.InDelta(t, 171.9, g.BodyWidth(), 1e-9)
	assert.InDelta(t, g.Margin, g.BodyTop(true), 1e-9)
	assert.InDelta(t, g.Margin+g.LogoHeight+g.TaglineHeight+g.HeaderSpacing, g.BodyTop(false), 1e-9)
	assert.Greater(t, g.BodyHeight(true), g.BodyHeight(false))
}
