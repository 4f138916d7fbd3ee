package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// City is an entry of the city catalogue. Names feed the city image rule and
// centres feed the distance estimates of the location lookup.
type City struct {
	Name       string  `json:"name" yaml:"name"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	Population int64   `json:"population" yaml:"population"`
	About      string  `json:"about,omitempty" yaml:"about,omitempty"`
}

// Center returns the city centre as a lon/lat point.
func (c City) Center() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// DefaultCities is the built-in catalogue.
var DefaultCities = []City{
	{
		Name:       "Liverpool",
		Latitude:   53.4084,
		Longitude:  -2.9916,
		Population: 486100,
		About: "Liverpool is a vibrant maritime city in North West England, famous for its waterfront, " +
			"its musical heritage and two Premier League football clubs. Ongoing regeneration and two " +
			"universities keep rental demand strong across the city.",
	},
}

var (
	cities     = append([]City(nil), DefaultCities...)
	citiesLock sync.RWMutex
)

// Cities returns a copy of the current catalogue.
func Cities() []City {
	citiesLock.RLock()
	defer citiesLock.RUnlock()
	return append([]City(nil), cities...)
}

// SetCities replaces the catalogue. An empty list restores the defaults.
func SetCities(list []City) {
	citiesLock.Lock()
	defer citiesLock.Unlock()
	if len(list) == 0 {
		list = DefaultCities
	}
	cities = append([]City(nil), list...)
}

// LoadCitiesFile replaces the catalogue with the cities listed in a YAML file
// of the form "cities: [{name, latitude, longitude, population, about}]".
func LoadCitiesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cities file: %w", err)
	}
	var file struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse cities file: %w", err)
	}
	for i, c := range file.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("city %d has no name", i+1)
		}
	}
	SetCities(file.Cities)
	return nil
}

// GetCityNames returns the names of the catalogue cities
func GetCityNames() []string {
	list := Cities()
	names := make([]string, len(list))
	for i, city := range list {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a catalogue city by name, ignoring case and spacing.
func GetCityByName(name string) *City {
	want := NormalizeCity(name)
	if want == "" {
		return nil
	}
	for _, city := range Cities() {
		if NormalizeCity(city.Name) == want {
			c := city
			return &c
		}
	}
	return nil
}

// PlaceNames returns the lowercase names used by the city image rule, with
// multi-word names also given in their underscore form.
func PlaceNames(extra ...string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, n := range append(GetCityNames(), extra...) {
		norm := NormalizeCity(n)
		add(norm)
		add(strings.ReplaceAll(norm, "-", "_"))
	}
	return out
}

// NormalizeCity lowercases a city name, drops apostrophes and joins the words
// with hyphens.
func NormalizeCity(name string) string {
	name = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(name))
	return strings.Join(strings.Fields(name), "-")
}
