package report

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyreport/internal/finance"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
)

// stubProber reports every listed path as a 4:3 jpeg and everything else as
// unreadable.
type stubProber map[string]bool

func (s stubProber) Probe(path string) (images.Info, error) {
	if s[path] {
		return images.Info{Width: 800, Height: 600, Format: "jpeg"}, nil
	}
	return images.Info{}, errors.New("missing")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleInputs() (models.PropertyRecord, finance.Metrics, models.EPCRecord, models.LocationRecord) {
	p := models.PropertyRecord{
		Address:      "5, Ridley Road",
		PostalCode:   "L6 6DN",
		PropertyType: "Terraced House",
		Bedrooms:     "5",
		Bathrooms:    "2",
		SizeSqm:      "120",
		AskingPrice:  "£290,000",
		DaysOnMarket: "45",
		KeyFeatures:  "• Five bedrooms\n• Two bathrooms\n\n- Garden",
	}
	m := finance.ComputeMetrics(models.InvestmentInputs{
		PurchasePrice: "£290,000", DepositPercent: "20", MonthlyRent: "£2,750", MortgageRate: "5.8",
		CouncilTax: "1670", Repairs: "660", Utilities: "1080", Water: "300", BroadbandTV: "480",
		Insurance: "480", StampDuty: "19000", Survey: "800", LegalFees: "2400", LoanSetup: "4640",
	})
	e := models.EPCRecord{
		Grade: "C", CurrentRating: "84", PotentialRating: "72",
		InspectionDate: "15th March 2024", WindowGlazing: "Double glazed", BuildingAge: "1900-1929",
		BroadbandAvailable: "Yes", DownloadSpeed: "1000 Mbps", UploadSpeed: "220 Mbps",
	}
	l := models.LocationRecord{
		City: "Liverpool", Population: "486,100", DistanceCityCentre: "2.1", TimeByCar: "12",
		TimePublicTransport: "18", WalkToStation: "8", StationDistance: "0.4", BusRoutes: "14, 17, 19",
		BusFrequency: "10 minutes", AboutCity: "A maritime city in North West England.",
	}
	return p, m, e, l
}

func newTestComposer(p images.Prober) *Composer {
	return NewComposer(Brand{Title: "Property Report", Tagline: "Professional Investment Analysis"}, p, quietLogger()).
		WithClock(func() time.Time { return time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC) })
}

func TestCompose_SectionOrderAndBreaks(t *testing.T) {
	p, m, e, l := sampleInputs()
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	require.Len(t, doc.Sections, len(SectionOrder))
	for i, s := range doc.Sections {
		assert.Equal(t, SectionOrder[i], s.Name)
		assert.Equal(t, i > 0, s.PageBreakBefore, s.Name)
		assert.Equal(t, i == 0, s.Cover, s.Name)
	}
	assert.Equal(t, "5, Ridley Road - Investment Report.pdf", doc.Filename)
}

func TestCompose_Cover(t *testing.T) {
	p, m, e, l := sampleInputs()
	slots := images.ResolveSections(map[images.SectionTag][]string{
		images.SectionCover:    {"front.jpg", "side.jpg"},
		images.SectionProperty: {"kitchen.jpg"},
	})
	doc := newTestComposer(stubProber{"front.jpg": true, "side.jpg": true, "kitchen.jpg": true}).
		Compose(p, m, e, l, slots)

	cover := doc.Section(SectionCover)
	require.NotNil(t, cover)

	var texts []string
	var thumbs int
	for _, b := range cover.Blocks {
		switch v := b.(type) {
		case Heading:
			texts = append(texts, v.Text)
		case Paragraph:
			texts = append(texts, v.Label+v.Text)
		case ImageRow:
			thumbs = len(v.Images)
		case Image:
			assert.Equal(t, "front.jpg", v.Image.Path)
			assert.False(t, v.Image.IsPlaceholder())
		}
	}
	assert.Contains(t, texts, "5, Ridley Road, L6 6DN")
	assert.Contains(t, texts, "Asking Price:£290,000")
	assert.Contains(t, texts, "Report created on 19th October 2026")
	assert.Equal(t, 2, thumbs)
}

func TestCompose_InvestmentTables(t *testing.T) {
	p, m, e, l := sampleInputs()
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	groups := doc.Groups()
	require.NotEmpty(t, groups)
	inv := groups[0]
	assert.Equal(t, "investment", inv.Name)

	costs := inv.Blocks[0].(Table)
	expenses := inv.Blocks[2].(Table)
	assert.Equal(t, []string{"Purchase Price", "£290,000"}, costs.Header)
	assert.Contains(t, costs.Rows, []string{"Deposit (20%)", "£58,000"})
	assert.Contains(t, costs.Rows, []string{"Total Investment Required", "£84,840"})
	assert.Contains(t, costs.Rows, []string{"Estimated Monthly Rent", "£2,750pcm"})
	assert.Contains(t, costs.Rows, []string{"Rental Yield", "11.4%"})
	assert.Contains(t, expenses.Rows, []string{"Mortgage @ 5.8% (Interest Only)", "£13,456"})
	assert.Contains(t, expenses.Rows, []string{"Total", "£17,926"})
	assert.Contains(t, expenses.Rows, []string{"Annual Profit", "£15,074"})
	assert.Contains(t, expenses.Rows, []string{"ROI", "17.8%"})
}

func TestCompose_DegradedMetricsShowZero(t *testing.T) {
	p, _, e, l := sampleInputs()
	m := finance.ComputeMetrics(models.InvestmentInputs{PurchasePrice: "lots"})
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	sec := doc.Section(SectionInvestment)
	require.NotNil(t, sec)
	note, ok := sec.Blocks[1].(Paragraph)
	require.True(t, ok)
	assert.Equal(t, StyleMuted, note.Style)

	costs := doc.Groups()[0].Blocks[0].(Table)
	assert.Equal(t, "£0", costs.Header[1])
	assert.Contains(t, costs.Rows, []string{"Rental Yield", "0.0%"})
}

func TestCompose_KeyInformationGroup(t *testing.T) {
	p, m, e, l := sampleInputs()

	tests := []struct {
		name     string
		features string
		columns  int
		hasList  bool
	}{
		{name: "no features", features: ""},
		{name: "three features", features: "a\nb\nc", columns: 1, hasList: true},
		{name: "eleven features", features: "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11", columns: 2, hasList: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.KeyFeatures = tt.features
			doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))
			sec := doc.Section(SectionKeyInformation)
			require.NotNil(t, sec)

			group, ok := sec.Blocks[1].(Group)
			require.True(t, ok)
			assert.Equal(t, "key_information", group.Name)

			hero := group.Blocks[0].(Image)
			assert.True(t, hero.Image.IsPlaceholder())
			assert.Equal(t, images.ReasonNoContent, hero.Image.Reason)

			var list *List
			for _, b := range group.Blocks {
				if v, ok := b.(List); ok {
					list = &v
				}
			}
			if !tt.hasList {
				assert.Nil(t, list)
				return
			}
			require.NotNil(t, list)
			assert.Equal(t, tt.columns, list.Columns)
		})
	}
}

func TestCompose_EPCMarkers(t *testing.T) {
	p, m, e, l := sampleInputs()
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	var chart EPCChart
	for _, b := range doc.Section(SectionOtherKeyInfo).Blocks {
		if v, ok := b.(EPCChart); ok {
			chart = v
		}
	}
	// literal mapping: the current field holds the higher score
	assert.True(t, chart.Current.Valid)
	assert.Equal(t, 84, chart.Current.Score)
	assert.Equal(t, 'B', chart.Current.Letter)
	assert.Equal(t, 1, chart.Current.Band)
	assert.Equal(t, "Current: 84", chart.Current.Text)
	assert.Equal(t, 'C', chart.Potential.Letter)

	e.CurrentRating = "0"
	e.PotentialRating = ""
	doc = newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))
	for _, b := range doc.Section(SectionOtherKeyInfo).Blocks {
		if v, ok := b.(EPCChart); ok {
			chart = v
		}
	}
	assert.False(t, chart.Current.Valid)
	assert.Equal(t, "Current: Not available", chart.Current.Text)
	assert.False(t, chart.Potential.Valid)
}

func TestCompose_ConditionalBlocks(t *testing.T) {
	p, m, e, l := sampleInputs()
	e.BroadbandAvailable = ""
	l.AboutCity = ""
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	for _, name := range []SectionName{SectionOtherKeyInfo, SectionLocation} {
		for _, b := range doc.Section(name).Blocks {
			if h, ok := b.(Heading); ok {
				assert.NotEqual(t, "Internet / Broadband Availability", h.Text)
				assert.NotEqual(t, "About the City", h.Text)
			}
		}
	}
}

func TestCompose_PlaceholdersForEmptyCollection(t *testing.T) {
	p, m, e, l := sampleInputs()
	doc := newTestComposer(stubProber{}).Compose(p, m, e, l, images.ResolveSections(nil))

	floor := doc.Section(SectionFloorPlans)
	var floorImages int
	for _, b := range floor.Blocks {
		if img, ok := b.(Image); ok {
			floorImages++
			assert.True(t, img.Image.IsPlaceholder())
		}
	}
	assert.Equal(t, 1, floorImages)

	gallery := doc.Section(SectionPropertyImages)
	var groups []Group
	for _, b := range gallery.Blocks {
		if g, ok := b.(Group); ok {
			groups = append(groups, g)
		}
	}
	require.Len(t, groups, 1)
	assert.Equal(t, "Image 1: No image provided", groups[0].Blocks[2].(Paragraph).Text)

	loc := doc.Section(SectionLocation)
	row := loc.Blocks[len(loc.Blocks)-1].(ImageRow)
	require.Len(t, row.Images, images.CitySlots)
	for _, img := range row.Images {
		assert.Equal(t, images.ReasonNoContent, img.Reason)
	}
}

func TestCompose_UnreadableImage(t *testing.T) {
	p, m, e, l := sampleInputs()
	slots := images.ResolveSections(map[images.SectionTag][]string{
		images.SectionProperty: {"/photos/kitchen.jpg", "/photos/gone.jpg"},
	})
	doc := newTestComposer(stubProber{"/photos/kitchen.jpg": true}).Compose(p, m, e, l, slots)

	var captions []string
	for _, g := range doc.Groups() {
		if g.Name == "gallery_1" || g.Name == "gallery_2" {
			captions = append(captions, g.Blocks[2].(Paragraph).Text)
		}
	}
	assert.Equal(t, []string{
		"Image 1: kitchen.jpg",
		"Image 2: gone.jpg (Image not available)",
	}, captions)
}

func TestSplitFeatures(t *testing.T) {
	assert.Equal(t, []string{"Garden", "Parking"}, SplitFeatures("• Garden\n\n  - Parking  \n"))
	assert.Empty(t, SplitFeatures(""))
}
