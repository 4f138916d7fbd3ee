package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"propertyreport/internal/epc"
	"propertyreport/internal/images"
	"propertyreport/internal/report"
)

// PDFWriter renders a document to PDF with fpdf core fonts.
type PDFWriter struct {
	logger *logrus.Logger
}

// NewPDFWriter creates a PDF writer.
func NewPDFWriter(logger *logrus.Logger) *PDFWriter {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &PDFWriter{logger: logger}
}

// fpdfMeasurer measures text with the font metrics of the document being
// written, after translating it to the core font code page.
type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m *fpdfMeasurer) TextWidth(s string, f Font) float64 {
	m.pdf.SetFont(f.Family, f.Style, f.Size)
	return m.pdf.GetStringWidth(m.tr(s))
}

// Write paginates doc and writes the PDF to out. The returned layout
// describes the pages that were written.
func (w *PDFWriter) Write(out io.Writer, doc *report.Document) (*Layout, error) {
	g := doc.Geometry
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Brand.Title, true)
	pdf.SetCreator("propertyreport", true)
	pdf.SetCreationDate(doc.CreatedAt)

	d := &drawer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		g:      g,
		doc:    doc,
		logger: w.logger,
		loaded: map[string]string{},
	}

	layout, err := Paginate(doc, g, &fpdfMeasurer{pdf: pdf, tr: d.tr})
	if err != nil {
		return nil, err
	}
	logOverflows(w.logger, layout)

	for _, page := range layout.Pages {
		pdf.AddPage()
		if !page.Cover {
			d.header()
		}
		for _, it := range page.Items {
			d.item(it)
		}
		d.footer(page, len(layout.Pages))
	}

	if pdf.Err() {
		return nil, fmt.Errorf("failed to render pdf: %w", pdf.Error())
	}
	if err := pdf.Output(out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return layout, nil
}

type drawer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	g      report.Geometry
	doc    *report.Document
	logger *logrus.Logger
	// loaded maps an image path to its registered type, "" when it failed.
	loaded map[string]string
}

func (d *drawer) font(f Font, c report.Color) {
	d.pdf.SetFont(f.Family, f.Style, f.Size)
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

func (d *drawer) fill(c report.Color) { d.pdf.SetFillColor(c.R, c.G, c.B) }
func (d *drawer) draw(c report.Color) { d.pdf.SetDrawColor(c.R, c.G, c.B) }

// text prints one line with its top edge at y.
func (d *drawer) text(x, y float64, s string, f Font) {
	d.pdf.Text(x, y+f.Size*ptToMM*0.95, d.tr(s))
}

// header draws the brand region. It uses only the fixed geometry, so every
// page gets an identical header.
func (d *drawer) header() {
	x, y := d.g.Margin, d.g.HeaderTop()
	titleX := x
	if path := d.doc.Brand.LogoPath; path != "" {
		if typ := d.register(path); typ != "" {
			info := d.pdf.GetImageInfo(path)
			w := d.g.LogoHeight
			if info != nil && info.Height() > 0 {
				w = d.g.LogoHeight * info.Width() / info.Height()
			}
			d.pdf.ImageOptions(path, x, y, w, d.g.LogoHeight, false, fpdf.ImageOptions{ImageType: typ}, 0, "")
			titleX = x + w + 4
		}
	}
	d.font(Font{Family: "Helvetica", Style: "B", Size: 16}, report.PrimaryBlue)
	d.text(titleX, y+(d.g.LogoHeight-16*ptToMM)/2, d.doc.Brand.Title, Font{Size: 16})

	d.font(Font{Family: "Helvetica", Style: "I", Size: 10}, report.AccentGold)
	d.text(x, y+d.g.LogoHeight+1, d.doc.Brand.Tagline, Font{Size: 10})

	ruleY := y + d.g.LogoHeight + d.g.TaglineHeight + 1
	d.draw(report.AccentGold)
	d.pdf.SetLineWidth(0.6)
	d.pdf.Line(x, ruleY, d.g.PageWidth-d.g.Margin, ruleY)
}

func (d *drawer) footer(page Page, total int) {
	if page.Cover {
		return
	}
	f := Font{Family: "Helvetica", Size: 8}
	d.font(f, report.DarkGrey)
	label := fmt.Sprintf("%s  |  Page %d of %d", d.doc.Address, page.Number, total)
	w := d.pdf.GetStringWidth(d.tr(label))
	d.text(d.g.PageWidth-d.g.Margin-w, d.g.PageHeight-d.g.Margin+4, label, f)
}

func (d *drawer) item(it Placement) {
	switch v := it.Block.(type) {
	case report.Banner:
		d.banner(it, v)
	case report.Heading:
		d.heading(it, v)
	case report.Paragraph:
		d.paragraph(it, v)
	case report.Table:
		d.table(it, v)
	case report.List:
		d.list(it)
	case report.Image:
		d.image(it.X, it.Y, it.W, it.H, v.Image)
	case report.ImageRow:
		d.imageRow(it, v)
	case report.EPCChart:
		d.chart(it, v)
	}
}

func (d *drawer) banner(it Placement, b report.Banner) {
	d.fill(b.Fill)
	d.pdf.Rect(it.X, it.Y, it.W, it.H, "F")
	d.font(Font{Family: "Helvetica", Style: "B", Size: 24}, report.White)
	d.text(it.X+12, it.Y+9, b.Title, Font{Size: 24})
	d.font(Font{Family: "Helvetica", Size: 12}, report.White)
	d.text(it.X+12, it.Y+22, b.Tagline, Font{Size: 12})
}

func (d *drawer) heading(it Placement, h report.Heading) {
	f := headingFont(h.Level)
	color := report.PrimaryBlue
	if h.Level > 1 {
		color = report.DarkGrey
	}
	d.font(f, color)
	y := it.Y
	for _, line := range it.Lines {
		d.text(it.X, y, line, f)
		y += f.LineHeight()
	}
	if h.Level == 1 {
		d.draw(report.AccentGold)
		d.pdf.SetLineWidth(0.4)
		d.pdf.Line(it.X, y+0.5, it.X+40, y+0.5)
	}
}

func (d *drawer) paragraph(it Placement, p report.Paragraph) {
	f := paragraphFont(p.Style)
	color := report.DarkGrey
	if p.Style == report.StyleHighlight {
		color = report.PrimaryBlue
	}
	y := it.Y
	for i, line := range it.Lines {
		x := it.X
		if i == 0 && !it.Continued && p.Label != "" && len(line) >= len(p.Label) && line[:len(p.Label)] == p.Label {
			bold := f
			bold.Style = "B"
			d.font(bold, color)
			d.text(x, y, p.Label, bold)
			x += d.pdf.GetStringWidth(d.tr(p.Label+" "))
			line = line[len(p.Label):]
			if len(line) > 0 && line[0] == ' ' {
				line = line[1:]
			}
		}
		d.font(f, color)
		d.text(x, y, line, f)
		y += f.LineHeight()
	}
}

func (d *drawer) table(it Placement, t report.Table) {
	widths := columnWidths(t, it.W)
	d.draw(report.PrimaryBlue)
	d.pdf.SetLineWidth(0.3)
	y := it.Y
	for r, cells := range it.Cells {
		h := it.RowHeights[r]
		f, pad, bg, fg := fontTableBody, cellPadding, report.LightGrey, report.DarkGrey
		switch {
		case r == 0:
			f, pad, bg, fg = fontTableHead, headPadding, t.Accent, report.White
		case r%2 == 0:
			bg = report.White
		}
		x := it.X
		for c, lines := range cells {
			d.fill(bg)
			d.pdf.Rect(x, y, widths[c], h, "FD")
			d.font(f, fg)
			ly := y + pad
			for _, line := range lines {
				d.text(x+cellPadding, ly, line, f)
				ly += f.LineHeight()
			}
			x += widths[c]
		}
		y += h
	}
}

func (d *drawer) list(it Placement) {
	colW := it.W
	if n := len(it.Columns); n > 1 {
		colW = (it.W - float64(n-1)*columnGap) / float64(n)
	}
	d.font(fontBody, report.DarkGrey)
	lh := fontBody.LineHeight()
	for c, column := range it.Columns {
		x := it.X + float64(c)*(colW+columnGap)
		y := it.Y
		for _, lines := range column {
			d.text(x+1, y, "•", fontBody)
			for _, line := range lines {
				d.text(x+bulletIndent, y, line, fontBody)
				y += lh
			}
		}
	}
}

func (d *drawer) imageRow(it Placement, r report.ImageRow) {
	n := len(r.Images)
	if n == 0 {
		return
	}
	cellW := (it.W - float64(n-1)*imageRowGap) / float64(n)
	for i, img := range r.Images {
		w, h := images.FitWithin(img.AspectRatio(), cellW, it.H)
		x := it.X + float64(i)*(cellW+imageRowGap) + (cellW-w)/2
		d.image(x, it.Y+(it.H-h)/2, w, h, img)
	}
}

// image draws a real image, or the placeholder box when there is none or
// the file cannot be loaded.
func (d *drawer) image(x, y, w, h float64, img images.ResolvedImage) {
	if !img.IsPlaceholder() {
		if typ := d.register(img.Path); typ != "" {
			d.pdf.ImageOptions(img.Path, x, y, w, h, false, fpdf.ImageOptions{ImageType: typ}, 0, "")
			return
		}
		img = images.Placeholder(images.ReasonUnreadable)
	}
	d.fill(report.LightGrey)
	d.draw(report.DarkGrey)
	d.pdf.SetLineWidth(0.3)
	d.pdf.Rect(x, y, w, h, "FD")
	f := fontMuted
	d.font(f, report.DarkGrey)
	label := img.Reason.String()
	tw := d.pdf.GetStringWidth(d.tr(label))
	d.text(x+(w-tw)/2, y+h/2-f.LineHeight()/2, label, f)
}

// register loads path into the document once. Images are decoded and
// re-encoded so every format the prober accepts can be embedded; the
// returned fpdf image type is "" when the file cannot be used.
func (d *drawer) register(path string) string {
	if typ, ok := d.loaded[path]; ok {
		return typ
	}
	typ, data, err := encodeForPDF(path)
	if err != nil {
		d.logger.WithField("path", path).WithError(err).Warn("Failed to load image, drawing placeholder")
		d.loaded[path] = ""
		return ""
	}
	d.pdf.RegisterImageOptionsReader(path, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	d.loaded[path] = typ
	return typ
}

func encodeForPDF(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return "", nil, err
		}
		return "JPG", buf.Bytes(), nil
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return "", nil, err
	}
	return "PNG", buf.Bytes(), nil
}

// chart draws the A-G scale as stacked bars, widest at G, with the current
// and potential markers in two columns on the right.
func (d *drawer) chart(it Placement, c report.EPCChart) {
	const headH = 8
	barTop := it.Y + headH
	bandH := (it.H - headH) / float64(len(epc.Bands))
	barMaxW := it.W * 0.62
	colW := it.W * 0.16
	curX := it.X + it.W*0.66
	potX := curX + colW + it.W*0.02

	d.font(fontBold, report.PrimaryBlue)
	d.text(curX, it.Y+1, c.Current.Label, fontBold)
	d.text(potX, it.Y+1, c.Potential.Label, fontBold)

	for i, b := range epc.Bands {
		y := barTop + float64(i)*bandH
		w := barMaxW * (0.4 + 0.6*float64(i)/float64(len(epc.Bands)-1))
		d.fill(report.HexColor(b.Color))
		d.pdf.Rect(it.X, y+0.6, w, bandH-1.2, "F")
		d.font(fontH2, report.White)
		d.text(it.X+3, y+(bandH-fontH2.Size*ptToMM)/2, string(b.Letter), fontH2)
		small := Font{Family: "Helvetica", Size: 8}
		d.font(small, report.White)
		d.text(it.X+11, y+(bandH-small.Size*ptToMM)/2, b.Label(), small)
	}

	d.marker(c.Current, curX, colW, barTop, bandH)
	d.marker(c.Potential, potX, colW, barTop, bandH)
}

func (d *drawer) marker(m report.EPCMarker, x, w, top, bandH float64) {
	if !m.Valid {
		d.font(fontMuted, report.DarkGrey)
		d.text(x, top+3*bandH, "Not available", fontMuted)
		return
	}
	chartH := bandH * float64(len(epc.Bands))
	cy := top + m.Y*chartH
	h := bandH * 0.8
	d.fill(report.HexColor(epc.Bands[m.Band].Color))
	d.pdf.Rect(x, cy-h/2, w, h, "F")
	label := fmt.Sprintf("%d %c", m.Score, m.Letter)
	d.font(fontBold, report.White)
	tw := d.pdf.GetStringWidth(d.tr(label))
	d.text(x+(w-tw)/2, cy-fontBold.Size*ptToMM/2, label, fontBold)
}
