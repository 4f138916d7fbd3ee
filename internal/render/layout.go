package render

import (
	"errors"
	"math"

	"github.com/sirupsen/logrus"

	"propertyreport/internal/images"
	"propertyreport/internal/report"
)

// Fixed block sizes in mm.
const (
	bannerHeight  = 38
	cellPadding   = 1.6
	headPadding   = 3
	imageRowGap   = 4
	bulletIndent  = 5
	columnGap     = 6
	paragraphGap  = 1.5
	headingGap1   = 4
	headingGap2   = 2
	keepWithNext  = 25
	tableGapAfter = 0
)

// Placement is one block positioned on a page.
type Placement struct {
	Block report.Block
	// Group is the name of the keep-together group the block belongs to.
	Group string
	X, Y  float64
	W, H  float64

	// Lines is the wrapped text of a heading or paragraph. A paragraph split
	// across pages holds only the lines placed on this page.
	Lines []string
	// Cells holds the wrapped text of a table: row -> column -> lines. Row 0
	// is the header.
	Cells      [][][]string
	RowHeights []float64
	// Columns holds the wrapped list items: column -> item -> lines.
	Columns [][][]string
	// Continued marks the second and later parts of a split paragraph or
	// list.
	Continued bool
}

// Page is one laid out page.
type Page struct {
	Number  int
	Cover   bool
	Section report.SectionName
	Items   []Placement
}

// Layout is the paginated document.
type Layout struct {
	Geometry report.Geometry
	Pages    []Page
	// Overflows names the groups taller than a page even after shrinking
	// their images and with no list to continue on the next page. They are
	// placed on a fresh page and run past the bottom margin.
	Overflows []string
}

// SplitGroups returns the number of keep-together groups whose blocks are
// on more than one page.
func (l *Layout) SplitGroups() int {
	pages := map[string]map[int]bool{}
	for _, p := range l.Pages {
		for _, it := range p.Items {
			if it.Group == "" {
				continue
			}
			if pages[it.Group] == nil {
				pages[it.Group] = map[int]bool{}
			}
			pages[it.Group][p.Number] = true
		}
	}
	n := 0
	for _, set := range pages {
		if len(set) > 1 {
			n++
		}
	}
	return n
}

// PageOf returns the page number a group starts on, or 0.
func (l *Layout) PageOf(group string) int {
	for _, p := range l.Pages {
		for _, it := range p.Items {
			if it.Group == group {
				return p.Number
			}
		}
	}
	return 0
}

// Paginate places every block of doc on pages of geometry g. Sections
// start on a new page. Groups never straddle a page boundary unless they
// are taller than a page, in which case their list continues on the next.
func Paginate(doc *report.Document, g report.Geometry, m Measurer) (*Layout, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if m == nil {
		return nil, errors.New("nil measurer")
	}
	p := &paginator{g: g, m: m, layout: &Layout{Geometry: g}}
	for i, s := range doc.Sections {
		if i == 0 || s.PageBreakBefore {
			p.newPage(s.Cover, s.Name)
		}
		p.section = s.Name
		p.cover = s.Cover
		for j, b := range s.Blocks {
			var next report.Block
			if j+1 < len(s.Blocks) {
				next = s.Blocks[j+1]
			}
			p.place(b, next)
		}
	}
	return p.layout, nil
}

type paginator struct {
	g       report.Geometry
	m       Measurer
	layout  *Layout
	y       float64
	cover   bool
	section report.SectionName
}

func (p *paginator) page() *Page {
	return &p.layout.Pages[len(p.layout.Pages)-1]
}

func (p *paginator) newPage(cover bool, section report.SectionName) {
	p.cover = cover
	p.section = section
	p.layout.Pages = append(p.layout.Pages, Page{
		Number:  len(p.layout.Pages) + 1,
		Cover:   cover,
		Section: section,
	})
	p.y = p.g.BodyTop(cover)
}

func (p *paginator) top() float64       { return p.g.BodyTop(p.cover) }
func (p *paginator) remaining() float64 { return p.g.BodyBottom() - p.y }
func (p *paginator) atTop() bool        { return p.y <= p.top()+1e-9 }

func (p *paginator) breakPage() { p.newPage(p.cover, p.section) }

func (p *paginator) emit(pl Placement) {
	pl.Y = p.y
	p.page().Items = append(p.page().Items, pl)
	p.y += pl.H
}

func (p *paginator) place(b report.Block, next report.Block) {
	switch v := b.(type) {
	case report.PageBreak:
		p.breakPage()
	case report.Spacer:
		if p.atTop() {
			return
		}
		p.y = math.Min(p.y+v.Height, p.g.BodyBottom())
	case report.Paragraph:
		p.placeParagraph(v)
	case report.Group:
		p.placeGroup(v)
	case report.Heading:
		pl := p.measure(v, p.g.BodyWidth())
		need := pl.H
		if next != nil {
			nh := p.measure(next, p.g.BodyWidth()).H
			if _, ok := next.(report.Group); ok {
				// a heading travels with the group it introduces
				need += math.Min(nh, p.g.BodyHeight(p.cover)-pl.H)
			} else {
				need += math.Min(nh, keepWithNext)
			}
		}
		if need > p.remaining() && !p.atTop() {
			p.breakPage()
		}
		p.emit(pl)
	case report.Image:
		pl := p.measure(v, p.g.BodyWidth())
		if pl.H > p.remaining() && !p.atTop() {
			if p.remaining() >= v.MinHeight && v.MinHeight > 0 {
				pl = shrinkImage(pl, v, p.remaining())
			} else {
				p.breakPage()
			}
		}
		if pl.H > p.remaining() {
			pl = shrinkImage(pl, v, p.remaining())
		}
		p.emit(pl)
	default:
		pl := p.measure(b, p.g.BodyWidth())
		if pl.H > p.remaining() && !p.atTop() {
			p.breakPage()
		}
		p.emit(pl)
	}
}

func (p *paginator) placeParagraph(v report.Paragraph) {
	pl := p.measure(v, p.g.BodyWidth())
	if pl.H <= p.remaining() {
		p.emit(pl)
		return
	}
	lh := paragraphFont(v.Style).LineHeight()
	lines := pl.Lines
	continued := false
	for len(lines) > 0 {
		fit := int((p.remaining() - paragraphGap) / lh)
		if fit < 1 {
			if p.atTop() {
				fit = 1
			} else {
				p.breakPage()
				continue
			}
		}
		if fit > len(lines) {
			fit = len(lines)
		}
		part := pl
		part.Lines = lines[:fit]
		part.H = float64(fit)*lh + paragraphGap
		part.Continued = continued
		p.emit(part)
		lines = lines[fit:]
		continued = true
		if len(lines) > 0 {
			p.breakPage()
		}
	}
}

func (p *paginator) placeGroup(g report.Group) {
	width := p.g.BodyWidth()
	items := make([]Placement, 0, len(g.Blocks))
	total := 0.0
	for _, b := range g.Blocks {
		pl := p.measure(b, width)
		pl.Group = g.Name
		items = append(items, pl)
		total += pl.H
	}

	li := listIndex(g)
	flows := li >= 0 && !p.fitsPage(g, items, total)
	if total > p.remaining() && !p.atTop() {
		if p.onlyHeadings() {
			if flows {
				p.flowGroup(g, items, li)
				return
			}
			if shrunk, h := shrinkGroup(append([]Placement(nil), items...), g, total-p.remaining()); h <= p.remaining() {
				items, total = shrunk, h
			}
		}
		if total > p.remaining() {
			p.breakPage()
		}
	}
	if total > p.remaining() {
		if flows {
			p.flowGroup(g, items, li)
			return
		}
		items, total = shrinkGroup(items, g, total-p.remaining())
	}
	if total > p.remaining()+1e-6 {
		p.layout.Overflows = append(p.layout.Overflows, g.Name)
	}
	for _, it := range items {
		p.emit(it)
	}
}

// flowGroup places a group taller than a page. The blocks before its list
// stay together on the current page and the list continues on the pages
// that follow.
func (p *paginator) flowGroup(g report.Group, items []Placement, li int) {
	head := append([]Placement(nil), items[:li]...)
	headH := 0.0
	for _, it := range head {
		headH += it.H
	}
	hg := report.Group{Name: g.Name, Blocks: g.Blocks[:li]}
	if headH > p.remaining() {
		shrunk, h := shrinkGroup(append([]Placement(nil), head...), hg, headH-p.remaining())
		if h > p.remaining() && !p.atTop() {
			p.breakPage()
			shrunk, _ = shrinkGroup(head, hg, headH-p.remaining())
		}
		head = shrunk
	}
	for _, it := range head {
		p.emit(it)
	}

	list := g.Blocks[li].(report.List)
	rest := list.Items
	continued := false
	for len(rest) > 0 {
		n, part := p.fitList(list.Columns, rest)
		if n == 0 {
			if !p.atTop() {
				p.breakPage()
				continue
			}
			n = 1
			part = p.measure(report.List{Items: rest[:1], Columns: list.Columns}, p.g.BodyWidth())
		}
		part.Group = g.Name
		part.Continued = continued
		p.emit(part)
		rest = rest[n:]
		continued = true
		if len(rest) > 0 {
			p.breakPage()
		}
	}

	for _, it := range items[li+1:] {
		if it.H > p.remaining() && !p.atTop() {
			p.breakPage()
		}
		p.emit(it)
	}
}

// fitList returns how many leading items fit in the remaining height and
// their placement.
func (p *paginator) fitList(columns int, items []string) (int, Placement) {
	var fit Placement
	n := 0
	for k := 1; k <= len(items); k++ {
		pl := p.measure(report.List{Items: items[:k], Columns: columns}, p.g.BodyWidth())
		if pl.H > p.remaining() {
			break
		}
		n, fit = k, pl
	}
	return n, fit
}

// fitsPage reports whether a group fits an empty page once its images
// shrink.
func (p *paginator) fitsPage(g report.Group, items []Placement, total float64) bool {
	room := p.g.BodyHeight(p.cover)
	if total <= room {
		return true
	}
	_, h := shrinkGroup(append([]Placement(nil), items...), g, total-room)
	return h <= room+1e-6
}

func listIndex(g report.Group) int {
	for i, b := range g.Blocks {
		if _, ok := b.(report.List); ok {
			return i
		}
	}
	return -1
}

// onlyHeadings reports whether the current page holds nothing but
// headings, so a group placed next must not leave them orphaned.
func (p *paginator) onlyHeadings() bool {
	items := p.page().Items
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.Block.Kind() != report.KindHeading {
			return false
		}
	}
	return true
}

// shrinkGroup reduces the images of a group towards their minimum heights
// to absorb excess mm. It returns the new placements and total height.
func shrinkGroup(items []Placement, g report.Group, excess float64) ([]Placement, float64) {
	slack := 0.0
	for i, it := range items {
		if img, ok := g.Blocks[i].(report.Image); ok && it.H > img.MinHeight {
			slack += it.H - img.MinHeight
		}
	}
	if slack > 0 {
		ratio := math.Min(1, excess/slack)
		for i, it := range items {
			img, ok := g.Blocks[i].(report.Image)
			if !ok || it.H <= img.MinHeight {
				continue
			}
			target := it.H - (it.H-img.MinHeight)*ratio
			items[i] = shrinkImage(it, img, target)
		}
	}
	total := 0.0
	for _, it := range items {
		total += it.H
	}
	return items, total
}

// shrinkImage fits an image placement to maxH, keeping its aspect ratio and
// never going below the block's MinHeight.
func shrinkImage(pl Placement, img report.Image, maxH float64) Placement {
	h := math.Max(maxH, img.MinHeight)
	if h >= pl.H {
		return pl
	}
	w := h * img.Image.AspectRatio()
	pl.X += (pl.W - w) / 2
	pl.W, pl.H = w, h
	return pl
}

// measure sizes a block at the given width without placing it.
func (p *paginator) measure(b report.Block, width float64) Placement {
	x := p.g.Margin
	pl := Placement{Block: b, X: x, W: width}
	switch v := b.(type) {
	case report.Banner:
		pl.H = bannerHeight
	case report.Heading:
		f := headingFont(v.Level)
		pl.Lines = wrap(p.m, v.Text, f, width)
		gap := headingGap2
		if v.Level == 1 {
			gap = headingGap1
		}
		pl.H = float64(len(pl.Lines))*f.LineHeight() + float64(gap)
	case report.Paragraph:
		f := paragraphFont(v.Style)
		text := v.Text
		if v.Label != "" {
			text = v.Label + " " + v.Text
		}
		pl.Lines = wrap(p.m, text, f, width)
		if len(pl.Lines) > 0 {
			pl.H = float64(len(pl.Lines))*f.LineHeight() + paragraphGap
		}
	case report.Table:
		p.measureTable(&pl, v, width)
	case report.List:
		p.measureList(&pl, v, width)
	case report.Image:
		w, h := images.FitWithin(v.Image.AspectRatio(), width*maxWidth(v.MaxWidth), v.MaxHeight)
		pl.X = x + (width-w)/2
		pl.W, pl.H = w, h
	case report.Group:
		for _, child := range v.Blocks {
			pl.H += p.measure(child, width).H
		}
	case report.ImageRow:
		pl.H = v.Height
	case report.EPCChart:
		pl.H = v.Height
	case report.Spacer:
		pl.H = v.Height
	}
	return pl
}

func maxWidth(f float64) float64 {
	if f <= 0 || f > 1 {
		return 1
	}
	return f
}

func (p *paginator) measureTable(pl *Placement, t report.Table, width float64) {
	widths := columnWidths(t, width)
	rows := append([][]string{t.Header}, t.Rows...)
	for r, row := range rows {
		f, pad := fontTableBody, cellPadding
		if r == 0 {
			f, pad = fontTableHead, headPadding
		}
		cells := make([][]string, len(widths))
		maxLines := 1
		for c := range widths {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			cells[c] = wrap(p.m, text, f, widths[c]-2*cellPadding)
			if len(cells[c]) > maxLines {
				maxLines = len(cells[c])
			}
		}
		h := float64(maxLines)*f.LineHeight() + 2*pad
		pl.Cells = append(pl.Cells, cells)
		pl.RowHeights = append(pl.RowHeights, h)
		pl.H += h
	}
	pl.H += tableGapAfter
}

// columnWidths converts the fractional widths of a table to mm. Missing
// fractions share the width equally.
func columnWidths(t report.Table, width float64) []float64 {
	n := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	out := make([]float64, n)
	if len(t.Widths) == n {
		for i, f := range t.Widths {
			out[i] = f * width
		}
		return out
	}
	for i := range out {
		out[i] = width / float64(n)
	}
	return out
}

func (p *paginator) measureList(pl *Placement, l report.List, width float64) {
	cols := l.Columns
	if cols < 1 {
		cols = 1
	}
	colW := (width - float64(cols-1)*columnGap) / float64(cols)
	perCol := (len(l.Items) + cols - 1) / cols
	lh := fontBody.LineHeight()
	for c := 0; c < cols; c++ {
		start := c * perCol
		end := start + perCol
		if start > len(l.Items) {
			start = len(l.Items)
		}
		if end > len(l.Items) {
			end = len(l.Items)
		}
		var column [][]string
		h := 0.0
		for _, item := range l.Items[start:end] {
			lines := wrap(p.m, item, fontBody, colW-bulletIndent)
			column = append(column, lines)
			h += float64(len(lines)) * lh
		}
		pl.Columns = append(pl.Columns, column)
		if h > pl.H {
			pl.H = h
		}
	}
	pl.H += paragraphGap
}

func logOverflows(logger *logrus.Logger, l *Layout) {
	for _, g := range l.Overflows {
		logger.WithField("group", g).Warn("Group taller than a page, placed on its own page")
	}
}
