package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nao1215/markdown"

	"propertyreport/internal/epc"
	"propertyreport/internal/images"
	"propertyreport/internal/report"
)

// MarkdownWriter writes a text summary of a document: the same sections,
// tables and captions as the PDF, with images as links.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write outputs the document and returns the number of bytes written.
func (w *MarkdownWriter) Write(doc *report.Document) (int, error) {
	md := markdown.NewMarkdown(w.output)

	for _, s := range doc.Sections {
		if s.Cover {
			md.H1(doc.Title)
			md.PlainText("")
		}
		w.blocks(md, s.Blocks)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*%s: %s*", doc.Brand.Title, doc.Brand.Tagline)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) blocks(md *markdown.Markdown, blocks []report.Block) {
	for _, b := range blocks {
		switch v := b.(type) {
		case report.Heading:
			switch v.Level {
			case 1:
				md.H2(v.Text)
			case 2:
				md.H3(v.Text)
			default:
				md.H4(v.Text)
			}
			md.PlainText("")
		case report.Paragraph:
			text := v.Text
			if v.Label != "" {
				text = markdown.Bold(v.Label) + " " + v.Text
			}
			if v.Style == report.StyleCaption || v.Style == report.StyleMuted {
				text = markdown.Italic(text)
			}
			md.PlainText(text)
			md.PlainText("")
		case report.Table:
			md.Table(markdown.TableSet{Header: v.Header, Rows: v.Rows})
			md.PlainText("")
		case report.List:
			md.BulletList(v.Items...)
			md.PlainText("")
		case report.Image:
			md.PlainText(imageLine(v.Image))
			md.PlainText("")
		case report.ImageRow:
			for _, img := range v.Images {
				md.PlainText(imageLine(img))
			}
			md.PlainText("")
		case report.EPCChart:
			md.Table(markdown.TableSet{
				Header: []string{"Rating", "Score", "Band"},
				Rows:   [][]string{markerRow(v.Current), markerRow(v.Potential)},
			})
			md.PlainText("")
		case report.Group:
			w.blocks(md, v.Blocks)
		}
	}
}

func imageLine(img images.ResolvedImage) string {
	if img.IsPlaceholder() {
		return markdown.Italic(img.Reason.String())
	}
	return fmt.Sprintf("![%s](%s)", filepath.Base(img.Path), img.Path)
}

func markerRow(m report.EPCMarker) []string {
	if !m.Valid {
		return []string{m.Label, "Not available", ""}
	}
	return []string{m.Label, fmt.Sprint(m.Score), fmt.Sprintf("%c %s", m.Letter, epc.Bands[m.Band].Label())}
}
