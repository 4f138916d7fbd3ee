package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"propertyreport/config"
	"propertyreport/internal/models"
)

const (
	sampleFile      = "sample.yaml"
	sampleImageDir  = "sample_images"
	sampleWidth     = 800
	sampleHeight    = 600
	sampleTextScale = 2
)

type sampleImage struct {
	Name        string
	Title       string
	Description string
	Color       color.RGBA
}

var sampleImages = []sampleImage{
	{"exterior_front.png", "Front Exterior", "Beautiful front view of the property", color.RGBA{34, 139, 34, 255}},
	{"living_room.png", "Living Room", "Spacious and modern living area", color.RGBA{255, 140, 0, 255}},
	{"kitchen.png", "Modern Kitchen", "Fully equipped modern kitchen", color.RGBA{70, 130, 180, 255}},
	{"bedroom.png", "Master Bedroom", "Comfortable master bedroom", color.RGBA{147, 112, 219, 255}},
	{"bathroom.png", "Bathroom", "Clean and modern bathroom", color.RGBA{0, 191, 255, 255}},
	{"garden.png", "Garden", "Well-maintained rear garden", color.RGBA{50, 205, 50, 255}},
	{"floor_plan_ground.png", "Ground Floor", "Floor plan of the ground floor", color.RGBA{112, 128, 144, 255}},
	{"city_centre_map.png", "City Centre", "Route to the city centre", color.RGBA{205, 92, 92, 255}},
	{"liverpool_waterfront.png", "Waterfront", "The Royal Albert Dock", color.RGBA{25, 25, 112, 255}},
}

func newSampleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sample [dir]",
		Short: "Write a sample input file and photographs",
		Long: `Sample writes sample.yaml and a sample_images directory of generated
photographs into dir (default the current directory). The input loads every
image from sample_images, so the classifier decides their sections.`,
		Example: `  reportgen sample ./demo && reportgen generate ./demo/sample.yaml -o ./demo/`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := writeSample(dir)
			if err != nil {
				return err
			}
			a.logger.WithField("path", path).Debug("Sample written")
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %d images in %s\n",
				path, len(sampleImages), filepath.Join(dir, sampleImageDir))
			return nil
		},
	}
}

// writeSample writes the sample input and its images under dir and returns
// the path of the input file.
func writeSample(dir string) (string, error) {
	imgDir := filepath.Join(dir, sampleImageDir)
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", imgDir, err)
	}
	for _, s := range sampleImages {
		if err := writeSampleImage(filepath.Join(imgDir, s.Name), s); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, sampleFile)
	if err := config.SaveInputFile(path, sampleInput()); err != nil {
		return "", err
	}
	return path, nil
}

func sampleInput() models.ReportInput {
	return models.ReportInput{
		Property: models.PropertyRecord{
			Address:      "5, Ridley Road",
			PostalCode:   "L6 6DN",
			PropertyType: "Semi-Detached House",
			Bedrooms:     "5",
			Bathrooms:    "5",
			SizeSqm:      "116",
			AskingPrice:  "£290,000",
			DaysOnMarket: "6",
			KeyFeatures: "Spacious Three Storey HMO Property\nFive Spacious En-Suite Double Bedrooms\n" +
				"Fantastic Investment Opportunity\nContemporary Fitted Kitchen\nCommunal Lounge\n" +
				"Sunny Rear Courtyard\nYield of 10.31%\nClose To Great Local Amenities, Train Station And Road Links\n" +
				"Close To City Centre\nEPC GRADE = C",
			Description: "Beautiful semi-detached family home in excellent condition. Features include modern kitchen, " +
				"spacious living areas, and a well-maintained garden. Perfect for families looking for comfort and " +
				"convenience. Located in a quiet residential area with excellent transport links.",
		},
		Investment: models.InvestmentInputs{
			PurchasePrice:  "£290,000",
			DepositPercent: "20",
			MonthlyRent:    "£2,750",
			MortgageRate:   "5.8",
			CouncilTax:     "£1,670",
			Repairs:        "£660",
			Utilities:      "£1,080",
			Water:          "£300",
			BroadbandTV:    "£480",
			Insurance:      "£480",
			StampDuty:      "£19,000",
			Survey:         "£800",
			LegalFees:      "£2,400",
			LoanSetup:      "£4,640",
		},
		EPC: models.EPCRecord{
			Grade:              "C",
			CurrentRating:      "84",
			PotentialRating:    "72",
			InspectionDate:     "30th January 2019",
			WindowGlazing:      "Double glazing installed during or after 2002",
			BuildingAge:        "before 1900",
			BroadbandAvailable: "Broadband available",
			DownloadSpeed:      "1,800 Mbps",
			UploadSpeed:        "220 Mbps",
		},
		Location: models.LocationRecord{
			City:                "Liverpool",
			Population:          "508,986",
			DistanceCityCentre:  "1.8",
			TimeByCar:           "6",
			TimePublicTransport: "18",
			WalkToStation:       "11",
			StationDistance:     "0.5",
			BusRoutes:           "10A / 9",
			BusFrequency:        "Every 8 minutes",
			AboutCity: "Liverpool is a port city and metropolitan borough in Merseyside, England. It is situated on " +
				"the eastern side of the Mersey Estuary, near the Irish Sea, 178 miles (286 km) north-west of London. " +
				"With a population of 496,770, Liverpool is the administrative, cultural and economic centre of the " +
				"Liverpool City Region, a combined authority area with a population of over 1.5 million.",
		},
		ImageDir: sampleImageDir,
	}
}

// writeSampleImage draws the card at half size with the bitmap font and
// scales it up so the text stays legible.
func writeSampleImage(path string, s sampleImage) error {
	w, h := sampleWidth/sampleTextScale, sampleHeight/sampleTextScale
	card := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(card, card.Bounds(), image.NewUniform(s.Color), image.Point{}, draw.Src)

	white := image.NewUniform(color.White)
	border := image.Rect(25, 25, w-25, h-25)
	for i := 0; i < 2; i++ {
		r := border.Inset(i)
		draw.Draw(card, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), white, image.Point{}, draw.Src)
		draw.Draw(card, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), white, image.Point{}, draw.Src)
		draw.Draw(card, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), white, image.Point{}, draw.Src)
		draw.Draw(card, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), white, image.Point{}, draw.Src)
	}

	d := &font.Drawer{Dst: card, Src: white, Face: basicfont.Face7x13}
	centred := func(y int, text string) {
		x := (fixed.I(w) - d.MeasureString(text)) / 2
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(y)}
		d.DrawString(text)
	}
	centred(h/3, s.Title)
	centred(h/3+28, s.Description)
	centred(h/3+48, "File: "+s.Name)

	out := image.NewRGBA(image.Rect(0, 0, sampleWidth, sampleHeight))
	draw.NearestNeighbor.Scale(out, out.Bounds(), card, card.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
