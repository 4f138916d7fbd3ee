// Package pipeline runs one report generation: validate, normalize, compute
// metrics, resolve images, compose and render. Each call works on its own
// snapshot of the input and shares no mutable state with other calls.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propertyreport/internal/finance"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
	"propertyreport/internal/render"
	"propertyreport/internal/report"
)

// ErrMissingAddress is the only input condition that blocks generation.
var ErrMissingAddress = errors.New("property address is required")

// ValidationError reports a blocking problem with the input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the input before any work starts.
func Validate(in models.ReportInput) error {
	if strings.TrimSpace(in.Property.Address) == "" {
		return &ValidationError{Field: "address", Err: ErrMissingAddress}
	}
	return nil
}

// Notifier is told about every report file written.
type Notifier interface {
	NotifyReport(r *Result) error
}

// Options configures a Generator.
type Options struct {
	Brand      report.Brand
	Classifier *images.Classifier
	Prober     images.Prober
	Notifier   Notifier
	Clock      func() time.Time
}

// Result summarises one generation.
type Result struct {
	ID          string               `json:"id"`
	Address     string               `json:"address"`
	Filename    string               `json:"filename"`
	Path        string               `json:"path,omitempty"`
	Bytes       int64                `json:"bytes"`
	Pages       int                  `json:"pages"`
	SplitGroups int                  `json:"split_groups"`
	Overflows   []string             `json:"overflows,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
	Images      int                  `json:"images"`
	Placeholder int                  `json:"placeholders"`
	Metrics     finance.Metrics      `json:"metrics"`
	Slots       images.ResolvedSlots `json:"slots"`
	CreatedAt   time.Time            `json:"created_at"`
	Duration    time.Duration        `json:"duration"`

	Document *report.Document `json:"-"`
}

// Generator produces reports.
type Generator struct {
	classifier *images.Classifier
	composer   *report.Composer
	pdf        *render.PDFWriter
	notifier   Notifier
	logger     *logrus.Logger
}

// NewGenerator creates a generator.
func NewGenerator(opts Options, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Classifier == nil {
		opts.Classifier = images.NewClassifier()
	}
	composer := report.NewComposer(opts.Brand, opts.Prober, logger)
	if opts.Clock != nil {
		composer.WithClock(opts.Clock)
	}
	return &Generator{
		classifier: opts.Classifier,
		composer:   composer,
		pdf:        render.NewPDFWriter(logger),
		notifier:   opts.Notifier,
		logger:     logger,
	}
}

// Build runs every step up to composition and returns the document with a
// partially filled result.
func (g *Generator) Build(in models.ReportInput) (*Result, error) {
	start := time.Now()
	if err := Validate(in); err != nil {
		g.logger.WithError(err).Warn("Report input rejected")
		return nil, err
	}

	res := &Result{ID: uuid.NewString(), Address: strings.TrimSpace(in.Property.Address)}
	log := g.logger.WithFields(logrus.Fields{"report_id": res.ID, "address": res.Address})

	log.WithField("step", "metrics").Debug("Computing investment metrics")
	res.Metrics = finance.ComputeMetrics(in.Investment)
	if res.Metrics.Degraded {
		log.WithField("fields", res.Metrics.ErrorStrings()).Warn("Investment metrics degraded to zero")
	}

	log.WithField("step", "images").Debug("Resolving images")
	col, skipped := images.FromSections(in.Images, g.classifier)
	for _, err := range skipped {
		log.WithError(err).Warn("Skipping image entry")
		res.Warnings = append(res.Warnings, err.Error())
	}
	if in.ImageDir != "" {
		if err := col.AddDir(in.ImageDir); err != nil {
			log.WithError(err).WithField("image_dir", in.ImageDir).Warn("Image directory unavailable, continuing without it")
			res.Warnings = append(res.Warnings, err.Error())
		}
	}
	res.Slots = images.Resolve(col)
	res.Images = col.Len()

	log.WithField("step", "compose").Debug("Composing document")
	doc := g.composer.Compose(in.Property, res.Metrics, in.EPC, in.Location, res.Slots)
	res.Document = doc
	res.Filename = doc.Filename
	res.CreatedAt = doc.CreatedAt
	for _, img := range doc.Images() {
		if img.IsPlaceholder() {
			res.Placeholder++
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Write renders the report as PDF to w.
func (g *Generator) Write(w io.Writer, in models.ReportInput) (*Result, error) {
	res, err := g.Build(in)
	if err != nil {
		return nil, err
	}
	if err := g.render(w, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Generate writes the report to outPath. An empty outPath or a directory
// selects the default file name "{address} - Investment Report.pdf". The
// file appears only when rendering succeeds.
func (g *Generator) Generate(in models.ReportInput, outPath string) (*Result, error) {
	res, err := g.Build(in)
	if err != nil {
		return nil, err
	}
	if err := g.WriteFile(res, outPath); err != nil {
		return nil, err
	}
	return res, nil
}

// WriteFile renders an already built report to outPath, resolved as in
// Generate, and sets res.Path. It can be called again after a failed write.
func (g *Generator) WriteFile(res *Result, outPath string) error {
	path := outputPath(outPath, res.Filename)
	err := render.WriteFileAtomic(path, func(w io.Writer) error {
		return g.render(w, res)
	})
	if err != nil {
		g.logger.WithFields(logrus.Fields{"report_id": res.ID, "path": path}).WithError(err).Error("Failed to write report")
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	res.Path = path

	g.logger.WithFields(logrus.Fields{
		"report_id":    res.ID,
		"path":         path,
		"pages":        res.Pages,
		"bytes":        res.Bytes,
		"placeholders": res.Placeholder,
		"duration":     res.Duration.String(),
	}).Info("Report generated")

	if g.notifier != nil {
		if err := g.notifier.NotifyReport(res); err != nil {
			g.logger.WithField("report_id", res.ID).WithError(err).Warn("Failed to send report notification")
		}
	}
	return nil
}

// WriteMarkdown renders the Markdown summary of the report to w.
func (g *Generator) WriteMarkdown(w io.Writer, in models.ReportInput) (*Result, error) {
	res, err := g.Build(in)
	if err != nil {
		return nil, err
	}
	n, err := render.NewMarkdownWriter(w).Write(res.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to write markdown: %w", err)
	}
	res.Bytes = int64(n)
	return res, nil
}

func (g *Generator) render(w io.Writer, res *Result) error {
	start := time.Now()
	var buf bytes.Buffer
	layout, err := g.pdf.Write(&buf, res.Document)
	if err != nil {
		return err
	}
	n, err := buf.WriteTo(w)
	if err != nil {
		return err
	}
	res.Bytes = n
	res.Pages = len(layout.Pages)
	res.SplitGroups = layout.SplitGroups()
	res.Overflows = layout.Overflows
	res.Duration += time.Since(start)
	return nil
}

func outputPath(outPath, filename string) string {
	if outPath == "" {
		return filename
	}
	if strings.HasSuffix(outPath, string(os.PathSeparator)) {
		return filepath.Join(outPath, filename)
	}
	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		return filepath.Join(outPath, filename)
	}
	return outPath
}
