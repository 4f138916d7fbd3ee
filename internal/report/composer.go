package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"propertyreport/internal/epc"
	"propertyreport/internal/finance"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
	"propertyreport/internal/normalize"
)

// TwoColumnFeatures is the number of key features above which the list is
// laid out in two columns.
const TwoColumnFeatures = 10

// Image sizes in mm.
const (
	coverHeroHeight    = 105
	coverHeroMin       = 60
	thumbnailRowHeight = 36
	keyHeroHeight      = 85
	keyHeroMin         = 40
	chartHeight        = 80
	floorPlanHeight    = 190
	floorPlanMin       = 110
	galleryHeight      = 95
	galleryMin         = 55
	directionsHeight   = 80
	directionsMin      = 50
	cityRowHeight      = 45
)

// Composer turns the resolved inputs of one report into a Document.
type Composer struct {
	brand    Brand
	geometry Geometry
	prober   images.Prober
	logger   *logrus.Logger
	now      func() time.Time
}

// NewComposer creates a composer. A nil prober reads image files from disk.
func NewComposer(brand Brand, prober images.Prober, logger *logrus.Logger) *Composer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if prober == nil {
		prober = images.FileProber{}
	}
	return &Composer{
		brand:    brand,
		geometry: DefaultGeometry(),
		prober:   prober,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock sets the clock used for the report date.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// WithGeometry overrides the page geometry.
func (c *Composer) WithGeometry(g Geometry) *Composer {
	c.geometry = g
	return c
}

// Compose builds the document. It never fails: missing values print as
// "N/A", missing images become placeholders and an out-of-range EPC score
// drops its marker.
func (c *Composer) Compose(p models.PropertyRecord, m finance.Metrics, e models.EPCRecord, l models.LocationRecord, slots images.ResolvedSlots) *Document {
	created := c.now()
	address := strings.TrimSpace(p.Address)

	doc := &Document{
		Title:     fmt.Sprintf("%s - Investment Report", address),
		Address:   address,
		Filename:  DefaultFilename(address),
		CreatedAt: created,
		Brand:     c.brand,
		Geometry:  c.geometry,
	}

	doc.Sections = []Section{
		c.cover(p, slots, created),
		c.investment(m),
		c.keyInformation(p, slots),
		c.otherKeyInformation(e),
		c.floorPlans(slots),
		c.propertyImages(slots),
		c.location(l, slots),
	}
	for i := range doc.Sections {
		doc.Sections[i].PageBreakBefore = i > 0
	}

	c.logger.WithFields(logrus.Fields{
		"address":  address,
		"sections": len(doc.Sections),
		"groups":   len(doc.Groups()),
	}).Debug("Composed report document")

	return doc
}

func (c *Composer) cover(p models.PropertyRecord, slots images.ResolvedSlots, created time.Time) Section {
	s := Section{Name: SectionCover, Title: "Cover", Cover: true}

	heading := strings.TrimSpace(p.Address)
	if pc := strings.TrimSpace(p.PostalCode); pc != "" {
		heading += ", " + pc
	}

	s.Blocks = append(s.Blocks,
		Banner{Title: c.brand.Title, Tagline: c.brand.Tagline, Fill: AccentGold},
		Spacer{Height: 6},
		Heading{Text: heading, Level: 1},
		Image{
			Role:      images.RoleCoverHero,
			Image:     c.resolve(slots.CoverHero),
			MaxWidth:  1,
			MaxHeight: coverHeroHeight,
			MinHeight: coverHeroMin,
		},
	)

	if len(slots.CoverThumbnails) > 0 {
		row := ImageRow{Role: images.RoleCoverThumbnail, Height: thumbnailRowHeight}
		for _, t := range slots.CoverThumbnails {
			row.Images = append(row.Images, c.resolve(t))
		}
		s.Blocks = append(s.Blocks, Spacer{Height: 3}, row)
	}

	s.Blocks = append(s.Blocks, Spacer{Height: 6})
	if price := strings.TrimSpace(p.AskingPrice); price != "" {
		s.Blocks = append(s.Blocks, Paragraph{Label: "Asking Price:", Text: price, Style: StyleHighlight})
	}
	s.Blocks = append(s.Blocks, Paragraph{Text: "Report created on " + OrdinalDate(created)})
	return s
}

func (c *Composer) investment(m finance.Metrics) Section {
	in := m.Inputs
	costs := Table{
		Header: []string{"Purchase Price", FormatGBP(in.PurchasePrice)},
		Rows: [][]string{
			{"Total Purchase Costs", ""},
			{fmt.Sprintf("Deposit (%s)", FormatRate(in.DepositPercent)), FormatGBP(m.DepositAmount)},
			{"Stamp Duty", FormatGBP(in.StampDuty)},
			{"Survey", FormatGBP(in.Survey)},
			{"Legal Fees", FormatGBP(in.LegalFees)},
			{"Loan Set-up", FormatGBP(in.LoanSetup)},
			{"Total Investment Required", FormatGBP(m.TotalInvestment)},
			{"Estimated Monthly Rent", FormatGBP(in.MonthlyRent) + "pcm"},
			{"Rental Yield", FormatPercent(m.RentalYieldPct)},
		},
		Widths: []float64{0.6, 0.4},
		Accent: AccentGold,
	}
	expenses := Table{
		Header: []string{"Total Annual Expenses", ""},
		Rows: [][]string{
			{fmt.Sprintf("Mortgage @ %s (Interest Only)", FormatRate(in.MortgageRate)), FormatGBP(m.AnnualMortgageInterest)},
			{"Council Tax", FormatGBP(in.CouncilTax)},
			{"Repairs / Maintenance", FormatGBP(in.Repairs)},
			{"Electric / Gas", FormatGBP(in.Utilities)},
			{"Water", FormatGBP(in.Water)},
			{"Broadband / TV", FormatGBP(in.BroadbandTV)},
			{"Insurance", FormatGBP(in.Insurance)},
			{"Total", FormatGBP(m.TotalAnnualExpenses)},
			{"Monthly Profit", FormatGBP(m.MonthlyProfit)},
			{"Annual Profit", FormatGBP(m.AnnualProfit)},
			{"ROI", FormatPercent(m.ROIPct)},
		},
		Widths: []float64{0.6, 0.4},
		Accent: Green,
	}

	s := Section{Name: SectionInvestment, Title: "Investment Opportunity"}
	s.Blocks = append(s.Blocks, Heading{Text: s.Title, Level: 1})
	if m.Degraded {
		c.logger.WithField("fields", m.ErrorStrings()).Warn("Investment metrics degraded, showing zero")
		s.Blocks = append(s.Blocks, Paragraph{
			Text:  "Some investment figures could not be read; the figures below are shown as zero.",
			Style: StyleMuted,
		})
	}
	s.Blocks = append(s.Blocks, Group{
		Name:   "investment",
		Blocks: []Block{costs, Spacer{Height: 8}, expenses},
	})
	return s
}

func (c *Composer) keyInformation(p models.PropertyRecord, slots images.ResolvedSlots) Section {
	s := Section{Name: SectionKeyInformation, Title: "Key Information"}

	info := Table{
		Header: []string{"Asking Price", orNA(p.AskingPrice)},
		Rows: [][]string{
			{"Property Type", orNA(p.PropertyType)},
			{"Bedrooms", orNA(p.Bedrooms)},
			{"Bathrooms", orNA(p.Bathrooms)},
			{"Size", withUnit(p.SizeSqm, " sqm")},
			{"On the market for", withUnit(p.DaysOnMarket, " days")},
		},
		Widths: []float64{0.4, 0.6},
		Accent: PrimaryBlue,
	}

	group := Group{Name: "key_information", Blocks: []Block{
		Image{
			Role:      images.RoleKeyInfoHero,
			Image:     c.resolve(slots.KeyInfoHero),
			MaxWidth:  1,
			MaxHeight: keyHeroHeight,
			MinHeight: keyHeroMin,
		},
		Spacer{Height: 5},
		info,
	}}
	if features := SplitFeatures(p.KeyFeatures); len(features) > 0 {
		cols := 1
		if len(features) > TwoColumnFeatures {
			cols = 2
		}
		group.Blocks = append(group.Blocks,
			Spacer{Height: 5},
			Heading{Text: "Key Features", Level: 2},
			List{Items: features, Columns: cols},
		)
	}

	s.Blocks = append(s.Blocks, Heading{Text: s.Title, Level: 1}, group)
	if d := strings.TrimSpace(p.Description); d != "" {
		s.Blocks = append(s.Blocks,
			Spacer{Height: 5},
			Heading{Text: "Description", Level: 2},
			Paragraph{Text: d},
		)
	}
	return s
}

func (c *Composer) otherKeyInformation(e models.EPCRecord) Section {
	s := Section{Name: SectionOtherKeyInfo, Title: "Other Key Information"}
	s.Blocks = append(s.Blocks,
		Heading{Text: s.Title, Level: 1},
		Heading{Text: "Energy Performance Certificate", Level: 2},
		EPCChart{
			Current:   c.marker("Current", e.CurrentRating),
			Potential: c.marker("Potential", e.PotentialRating),
			Height:    chartHeight,
		},
	)
	if g := strings.TrimSpace(e.Grade); g != "" {
		s.Blocks = append(s.Blocks, Paragraph{Label: "EPC Grade:", Text: g, Style: StyleHighlight})
	}
	s.Blocks = append(s.Blocks,
		Spacer{Height: 4},
		Table{
			Header: []string{"Latest Inspection Date", orNA(e.InspectionDate)},
			Rows: [][]string{
				{"Window Glazing", orNA(e.WindowGlazing)},
				{"Building Construction Age", orNA(e.BuildingAge)},
			},
			Widths: []float64{0.4, 0.6},
			Accent: AccentGold,
		},
	)

	if b := strings.TrimSpace(e.BroadbandAvailable); b != "" {
		s.Blocks = append(s.Blocks,
			Spacer{Height: 6},
			Heading{Text: "Internet / Broadband Availability", Level: 2},
			Paragraph{Label: "Broadband available:", Text: b},
			Paragraph{Label: "Highest available download speed:", Text: orNA(e.DownloadSpeed)},
			Paragraph{Label: "Highest available upload speed:", Text: orNA(e.UploadSpeed)},
		)
	}
	return s
}

// marker places one EPC score. Ratings are used exactly as given: the
// "current" field feeds the Current marker even when it is the higher score.
func (c *Composer) marker(label, raw string) EPCMarker {
	mk := EPCMarker{Label: label, Text: label + ": Not available"}
	score, err := normalize.ParseInt(raw)
	if err != nil {
		c.logger.WithField("rating", label).WithError(err).Warn("EPC rating missing or malformed, omitting marker")
		return mk
	}
	letter, band, err := epc.BandFor(score)
	if err != nil {
		c.logger.WithField("rating", label).WithError(err).Warn("EPC rating out of range, omitting marker")
		mk.Score = score
		return mk
	}
	y, _ := epc.YPosition(score)
	return EPCMarker{
		Label:  label,
		Score:  score,
		Valid:  true,
		Letter: letter,
		Band:   band,
		Y:      y,
		Text:   fmt.Sprintf("%s: %d", label, score),
	}
}

func (c *Composer) floorPlans(slots images.ResolvedSlots) Section {
	s := Section{Name: SectionFloorPlans, Title: "Floor Plans"}
	s.Blocks = append(s.Blocks, Heading{Text: s.Title, Level: 1})
	for i, slot := range slots.FloorPlans {
		if i > 0 {
			s.Blocks = append(s.Blocks, PageBreak{})
		}
		s.Blocks = append(s.Blocks, Image{
			Role:      images.RoleFloorPlan,
			Image:     c.resolve(slot),
			MaxWidth:  1,
			MaxHeight: floorPlanHeight,
			MinHeight: floorPlanMin,
		})
	}
	return s
}

func (c *Composer) propertyImages(slots images.ResolvedSlots) Section {
	s := Section{Name: SectionPropertyImages, Title: "Property Images"}
	s.Blocks = append(s.Blocks, Heading{Text: s.Title, Level: 1})
	for i, slot := range slots.Gallery {
		img := c.resolve(slot)
		s.Blocks = append(s.Blocks, Group{
			Name: fmt.Sprintf("gallery_%d", i+1),
			Blocks: []Block{
				Image{Role: images.RoleGallery, Image: img, MaxWidth: 1, MaxHeight: galleryHeight, MinHeight: galleryMin},
				Spacer{Height: 3},
				Paragraph{Text: Caption(i, slot, img), Style: StyleCaption},
			},
		}, Spacer{Height: 6})
	}
	return s
}

// Caption returns the gallery caption "Image N: filename".
func Caption(i int, slot images.Slot, img images.ResolvedImage) string {
	switch {
	case slot.Empty():
		return fmt.Sprintf("Image %d: %s", i+1, images.ReasonNoContent)
	case img.IsPlaceholder():
		return fmt.Sprintf("Image %d: %s (%s)", i+1, filepath.Base(slot.Path), img.Reason)
	default:
		return fmt.Sprintf("Image %d: %s", i+1, filepath.Base(slot.Path))
	}
}

func (c *Composer) location(l models.LocationRecord, slots images.ResolvedSlots) Section {
	s := Section{Name: SectionLocation, Title: "Getting To The City Centre"}
	s.Blocks = append(s.Blocks,
		Heading{Text: s.Title, Level: 1},
		Image{
			Role:      images.RoleDirections,
			Image:     c.resolve(slots.Directions),
			MaxWidth:  1,
			MaxHeight: directionsHeight,
			MinHeight: directionsMin,
		},
		Spacer{Height: 5},
		Table{
			Header: []string{"Route", "Time", "Details"},
			Rows: [][]string{
				{"By Car", withUnit(l.TimeByCar, " minutes"), withUnit(l.DistanceCityCentre, " miles")},
				{"By Public Transport", withUnit(l.TimePublicTransport, " minutes"),
					fmt.Sprintf("%s walk (%s)", withUnit(l.WalkToStation, " mins"), withUnit(l.StationDistance, " mi"))},
				{"Bus Routes", orNA(l.BusRoutes), "Every " + orNA(l.BusFrequency)},
			},
			Widths: []float64{0.32, 0.26, 0.42},
			Accent: Green,
		},
	)

	if about := strings.TrimSpace(l.AboutCity); about != "" {
		s.Blocks = append(s.Blocks,
			Spacer{Height: 6},
			Heading{Text: "About the City", Level: 2},
			Paragraph{Text: orNA(l.City), Style: StyleHighlight},
			Paragraph{Text: about},
			Paragraph{Label: "Population:", Text: orNA(l.Population)},
		)
	}

	row := ImageRow{Role: images.RoleCity, Height: cityRowHeight}
	for _, slot := range slots.City {
		row.Images = append(row.Images, c.resolve(slot))
	}
	s.Blocks = append(s.Blocks, Spacer{Height: 6}, row)
	return s
}

func (c *Composer) resolve(s images.Slot) images.ResolvedImage {
	img := images.ResolveSlot(s, c.prober)
	if img.Reason == images.ReasonUnreadable {
		c.logger.WithFields(logrus.Fields{
			"role": s.Role,
			"path": s.Path,
		}).WithError(img.Err).Warn("Image unreadable, using placeholder")
	}
	return img
}

// SplitFeatures turns the newline-delimited key features into list items,
// dropping blank lines and leading bullet marks.
func SplitFeatures(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "•-*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
