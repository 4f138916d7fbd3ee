// Package report builds the resolved document tree of an investment report.
// The tree is renderer independent: every block carries its content and
// layout directives, and nothing in it depends on live page state.
package report

import (
	"time"

	"propertyreport/internal/images"
)

// BlockKind identifies the concrete type of a Block.
type BlockKind string

const (
	KindBanner    BlockKind = "banner"
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindTable     BlockKind = "table"
	KindImage     BlockKind = "image"
	KindImageRow  BlockKind = "image_row"
	KindEPCChart  BlockKind = "epc_chart"
	KindList      BlockKind = "list"
	KindSpacer    BlockKind = "spacer"
	KindGroup     BlockKind = "group"
	KindPageBreak BlockKind = "page_break"
)

// Block is one unit of content in a section.
type Block interface {
	Kind() BlockKind
}

// Banner is the coloured title band of the cover page.
type Banner struct {
	Title   string
	Tagline string
	Fill    Color
}

// Heading is a section or sub-section title. Level 1 is a section title.
type Heading struct {
	Text  string
	Level int
}

// Paragraph is wrapped body text. A non-empty Label is printed in bold in
// front of the text, as in "Population: 486,100".
type Paragraph struct {
	Label string
	Text  string
	Style TextStyle
}

// Table is a grid of text cells. Header is drawn on the Accent fill;
// Widths are fractions of the body width and sum to 1.
type Table struct {
	Header []string
	Rows   [][]string
	Widths []float64
	Accent Color
}

// Image places one resolved image (or its placeholder). The renderer fits
// it inside MaxWidth (fraction of body width) x MaxHeight millimetres and may
// shrink it down to MinHeight to keep its group on one page.
type Image struct {
	Role      images.Role
	Image     images.ResolvedImage
	MaxWidth  float64
	MaxHeight float64
	MinHeight float64
}

// ImageRow places images side by side in equal cells of Height mm.
type ImageRow struct {
	Role   images.Role
	Images []images.ResolvedImage
	Height float64
}

// EPCMarker is one score placed on the EPC chart.
type EPCMarker struct {
	Label string
	Score int
	// Valid is false when the score was out of range; the marker is then
	// omitted and Text reads "Not available".
	Valid  bool
	Letter rune
	Band   int
	Y      float64
	Text   string
}

// EPCChart is the vector drawing of the A-G scale with both markers.
type EPCChart struct {
	Current   EPCMarker
	Potential EPCMarker
	Height    float64
}

// List is a bulleted list. Columns is 1 or 2.
type List struct {
	Items   []string
	Columns int
}

// Spacer is vertical white space in mm. It is dropped at the top of a page.
type Spacer struct {
	Height float64
}

// Group is a keep-together unit: its blocks are placed on a single page.
type Group struct {
	Name   string
	Blocks []Block
}

// PageBreak starts a new page.
type PageBreak struct{}

func (Banner) Kind() BlockKind    { return KindBanner }
func (Heading) Kind() BlockKind   { return KindHeading }
func (Paragraph) Kind() BlockKind { return KindParagraph }
func (Table) Kind() BlockKind     { return KindTable }
func (Image) Kind() BlockKind     { return KindImage }
func (ImageRow) Kind() BlockKind  { return KindImageRow }
func (EPCChart) Kind() BlockKind  { return KindEPCChart }
func (List) Kind() BlockKind      { return KindList }
func (Spacer) Kind() BlockKind    { return KindSpacer }
func (Group) Kind() BlockKind     { return KindGroup }
func (PageBreak) Kind() BlockKind { return KindPageBreak }

// SectionName identifies a section of the fixed report structure.
type SectionName string

const (
	SectionCover          SectionName = "cover"
	SectionInvestment     SectionName = "investment_opportunity"
	SectionKeyInformation SectionName = "key_information"
	SectionOtherKeyInfo   SectionName = "other_key_information"
	SectionFloorPlans     SectionName = "floor_plans"
	SectionPropertyImages SectionName = "property_images"
	SectionLocation       SectionName = "location"
)

// SectionOrder is the fixed order sections appear in.
var SectionOrder = []SectionName{
	SectionCover,
	SectionInvestment,
	SectionKeyInformation,
	SectionOtherKeyInfo,
	SectionFloorPlans,
	SectionPropertyImages,
	SectionLocation,
}

// Section is an ordered list of blocks. Every section but the first starts
// on a new page; Cover sections carry no page header.
type Section struct {
	Name            SectionName
	Title           string
	Cover           bool
	PageBreakBefore bool
	Blocks          []Block
}

// Brand is the header content repeated on every page after the cover.
type Brand struct {
	Title    string
	Tagline  string
	LogoPath string
}

// Document is the composed report, built fresh for every generation.
type Document struct {
	Title     string
	Address   string
	Filename  string
	CreatedAt time.Time
	Brand     Brand
	Geometry  Geometry
	Sections  []Section
}

// Section returns the named section, or nil.
func (d *Document) Section(name SectionName) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}

// Groups returns every keep-together group of the document in order.
func (d *Document) Groups() []Group {
	var out []Group
	for _, s := range d.Sections {
		for _, b := range s.Blocks {
			if g, ok := b.(Group); ok {
				out = append(out, g)
			}
		}
	}
	return out
}

// Images returns every image of the document in order, including those in
// rows and groups.
func (d *Document) Images() []images.ResolvedImage {
	var out []images.ResolvedImage
	var walk func([]Block)
	walk = func(blocks []Block) {
		for _, b := range blocks {
			switch v := b.(type) {
			case Image:
				out = append(out, v.Image)
			case ImageRow:
				out = append(out, v.Images...)
			case Group:
				walk(v.Blocks)
			}
		}
	}
	for _, s := range d.Sections {
		walk(s.Blocks)
	}
	return out
}
