package geocoding

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"propertyreport/internal/models"
)

// Place is a named point near the property.
type Place struct {
	Name          string    `json:"name"`
	Point         orb.Point `json:"point"`
	DistanceMiles float64   `json:"distance_miles"`
	WalkMinutes   int       `json:"walk_minutes"`
}

// Lookup is the result of a location query.
type Lookup struct {
	Query       string    `json:"query"`
	DisplayName string    `json:"display_name"`
	Point       orb.Point `json:"point"`
	Postcode    string    `json:"postcode,omitempty"`
	District    string    `json:"district,omitempty"`

	City       string    `json:"city,omitempty"`
	CityCentre orb.Point `json:"city_centre"`
	Population int64     `json:"population,omitempty"`
	About      string    `json:"about,omitempty"`

	// Zero when the city is not in the catalogue
	DistanceMiles  float64 `json:"distance_miles,omitempty"`
	CarMinutes     int     `json:"car_minutes,omitempty"`
	TransitMinutes int     `json:"transit_minutes,omitempty"`

	Station   *Place   `json:"station,omitempty"`
	BusRoutes []string `json:"bus_routes,omitempty"`

	// Set when the transport query failed; the rest of the lookup is valid
	TransportError string `json:"transport_error,omitempty"`
	Cached         bool   `json:"cached"`
}

// Fields returns the lookup as location field values keyed like the report
// input ("city", "distance_city_centre", ...). Unknown values are left out.
func (l *Lookup) Fields() map[string]string {
	out := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("city", l.City)
	if l.Population > 0 {
		set("population", groupThousands(l.Population))
	}
	set("about_city", l.About)
	if l.DistanceMiles > 0 {
		set("distance_city_centre", strconv.FormatFloat(l.DistanceMiles, 'f', 1, 64))
	}
	if l.CarMinutes > 0 {
		set("time_car", strconv.Itoa(l.CarMinutes))
	}
	if l.TransitMinutes > 0 {
		set("time_public_transport", strconv.Itoa(l.TransitMinutes))
	}
	if l.Station != nil {
		set("walk_to_station", strconv.Itoa(l.Station.WalkMinutes))
		set("station_distance", strconv.FormatFloat(l.Station.DistanceMiles, 'f', 1, 64))
	}
	set("bus_routes", strings.Join(l.BusRoutes, ", "))
	return out
}

// Apply copies the looked-up values into the blank fields of rec. Values
// typed in by hand are kept.
func (l *Lookup) Apply(rec *models.LocationRecord) {
	fields := l.Fields()
	targets := map[string]*string{
		"city":                  &rec.City,
		"population":            &rec.Population,
		"about_city":            &rec.AboutCity,
		"distance_city_centre":  &rec.DistanceCityCentre,
		"time_car":              &rec.TimeByCar,
		"time_public_transport": &rec.TimePublicTransport,
		"walk_to_station":       &rec.WalkToStation,
		"station_distance":      &rec.StationDistance,
		"bus_routes":            &rec.BusRoutes,
	}
	for key, ptr := range targets {
		if v, ok := fields[key]; ok && strings.TrimSpace(*ptr) == "" {
			*ptr = v
		}
	}
}

// FeatureCollection returns the property, the city centre and the nearest
// station as GeoJSON points.
func (l *Lookup) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	property := geojson.NewFeature(l.Point)
	property.Properties = geojson.Properties{"kind": "property", "name": l.DisplayName, "postcode": l.Postcode}
	fc.Append(property)

	if l.City != "" && !l.CityCentre.Equal(orb.Point{}) {
		centre := geojson.NewFeature(l.CityCentre)
		centre.Properties = geojson.Properties{"kind": "city_centre", "name": l.City, "distance_miles": l.DistanceMiles}
		fc.Append(centre)
	}
	if l.Station != nil {
		station := geojson.NewFeature(l.Station.Point)
		station.Properties = geojson.Properties{
			"kind":           "station",
			"name":           l.Station.Name,
			"distance_miles": l.Station.DistanceMiles,
			"walk_minutes":   l.Station.WalkMinutes,
		}
		fc.Append(station)
	}
	return fc
}

var printer = message.NewPrinter(language.BritishEnglish)

func groupThousands(n int64) string {
	return printer.Sprint(number.Decimal(n))
}
