// Package images routes photographs to report sections and decides which
// image fills each slot of the document.
package images

import (
	"path/filepath"
	"strings"
)

// SectionTag is the closed set of sections an image can belong to.
type SectionTag string

const (
	SectionCover      SectionTag = "cover"
	SectionProperty   SectionTag = "property"
	SectionFloorPlans SectionTag = "floor_plans"
	SectionDirections SectionTag = "directions"
	SectionCity       SectionTag = "city"
)

// Sections lists every tag in document order.
var Sections = []SectionTag{SectionCover, SectionProperty, SectionFloorPlans, SectionDirections, SectionCity}

// Valid reports whether t is one of the known tags.
func (t SectionTag) Valid() bool {
	for _, s := range Sections {
		if s == t {
			return true
		}
	}
	return false
}

// Rule routes a filename to a tag when Match returns true. Match receives
// the lowercased base name.
type Rule struct {
	Name  string
	Match func(name string) bool
	Tag   SectionTag
}

// Classifier evaluates its rules in order; the first match wins.
type Classifier struct {
	rules    []Rule
	fallback SectionTag
}

// DefaultPlaceNames are matched by the city rule in addition to any
// configured names.
var DefaultPlaceNames = []string{"liverpool"}

// NewClassifier builds the standard rule chain:
//
//  1. "exterior" and "front"                 -> cover
//  2. "floor" or "plan"                      -> floor_plans
//  3. "direction", "map" or "city_centre"    -> directions
//  4. "city", "urban" or a known place name  -> city
//  5. anything else                          -> property
//
// The order is a tie-break: "exterior_front_floorplan.jpg" is a cover image.
func NewClassifier(placeNames ...string) *Classifier {
	cityWords := []string{"city", "urban"}
	for _, p := range append(append([]string{}, DefaultPlaceNames...), placeNames...) {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			cityWords = append(cityWords, p)
		}
	}

	return &Classifier{
		rules: []Rule{
			{Name: "exterior-front", Match: containsAll("exterior", "front"), Tag: SectionCover},
			{Name: "floor-plan", Match: containsAny("floor", "plan"), Tag: SectionFloorPlans},
			{Name: "directions", Match: containsAny("direction", "map", "city_centre"), Tag: SectionDirections},
			{Name: "city", Match: containsAny(cityWords...), Tag: SectionCity},
		},
		fallback: SectionProperty,
	}
}

// Classify returns the section for an image path. Only the file name is
// inspected, never the directories above it.
func (c *Classifier) Classify(path string) SectionTag {
	name := strings.ToLower(filepath.Base(path))
	for _, r := range c.rules {
		if r.Match(name) {
			return r.Tag
		}
	}
	return c.fallback
}

// Rules returns a copy of the rule chain in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

func containsAll(words ...string) func(string) bool {
	return func(name string) bool {
		for _, w := range words {
			if !strings.Contains(name, w) {
				return false
			}
		}
		return true
	}
}

func containsAny(words ...string) func(string) bool {
	return func(name string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}
}
