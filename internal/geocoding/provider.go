// Package geocoding looks up where a property is and how it connects to its
// city centre, using Nominatim for the address and Overpass for nearby
// stations and bus routes.
package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"propertyreport/config"
	"propertyreport/internal/geometry"
)

// ErrNotFound is returned when the address cannot be located.
var ErrNotFound = errors.New("location not found")

// MaxCityMiles bounds the fallback match to the nearest catalogue city.
const MaxCityMiles = 25.0

// Cache stores lookups between runs.
type Cache interface {
	GetLookup(key string) ([]byte, bool, error)
	PutLookup(key, query string, payload []byte) error
}

// Options configures a Provider.
type Options struct {
	NominatimURL string
	OverpassURL  string
	UserAgent    string
	CountryCodes string
	Timeout      time.Duration
	MinInterval  time.Duration
	SearchRadius float64

	CarMPH     float64
	WalkMPH    float64
	TransitMPH float64

	// Cities returns the catalogue used for city matching
	Cities func() []config.City
}

// OptionsFromConfig maps the lookup settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		NominatimURL: cfg.Lookup.NominatimURL,
		OverpassURL:  cfg.Lookup.OverpassURL,
		UserAgent:    cfg.Lookup.UserAgent,
		Timeout:      cfg.Lookup.Timeout,
		MinInterval:  cfg.Lookup.MinInterval,
		SearchRadius: cfg.Lookup.SearchRadius,
		CarMPH:       cfg.Lookup.CarSpeedMPH,
		WalkMPH:      cfg.Lookup.WalkSpeedMPH,
		TransitMPH:   cfg.Lookup.TransitSpeedMPH,
		Cities:       config.Cities,
	}
}

type Provider struct {
	opts   Options
	client *http.Client
	cache  Cache
	logger *logrus.Logger

	mu   sync.Mutex
	last time.Time
}

// NewProvider creates a provider. cache may be nil.
func NewProvider(opts Options, cache Cache, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "PropertyReport/1.0"
	}
	if opts.CountryCodes == "" {
		opts.CountryCodes = "gb"
	}
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = 1500
	}
	if opts.Cities == nil {
		opts.Cities = config.Cities
	}
	return &Provider{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		cache:  cache,
		logger: logger,
	}
}

// CacheKey returns the cache key of a query: the SHA-256 of its lowercase
// words.
func CacheKey(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// Lookup locates query and estimates its distances to the city centre and
// the nearest station. A failed transport query leaves the station and bus
// fields empty and is reported in TransportError.
func (p *Provider) Lookup(ctx context.Context, query string) (*Lookup, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty query: %w", ErrNotFound)
	}
	log := p.logger.WithField("query", q)
	key := CacheKey(q)

	if p.cache != nil {
		payload, found, err := p.cache.GetLookup(key)
		if err != nil {
			log.WithError(err).Warn("Lookup cache unavailable")
		} else if found {
			var l Lookup
			if err := json.Unmarshal(payload, &l); err == nil {
				l.Cached = true
				log.WithField("source", "cache").Debug("Found location in cache")
				return &l, nil
			}
			log.Warn("Ignoring unreadable cache entry")
		}
	}

	res, err := p.search(ctx, q)
	if err != nil {
		return nil, err
	}

	lat, errLat := strconv.ParseFloat(res.Lat, 64)
	lon, errLon := strconv.ParseFloat(res.Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, fmt.Errorf("invalid coordinates %q,%q for %s", res.Lat, res.Lon, q)
	}

	l := &Lookup{
		Query:       q,
		DisplayName: res.DisplayName,
		Point:       orb.Point{lon, lat},
		Postcode:    res.Address.Postcode,
		District:    geometry.District(res.Address.Postcode),
	}
	p.matchCity(l, res.Address.cityNames())

	if err := p.transport(ctx, l); err != nil {
		l.TransportError = err.Error()
		log.WithError(err).Warn("Transport lookup failed")
	}
	p.estimate(l)

	log.WithFields(logrus.Fields{
		"city":      l.City,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Located address")

	if p.cache != nil && l.TransportError == "" {
		payload, err := json.Marshal(l)
		if err == nil {
			err = p.cache.PutLookup(key, q, payload)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to cache lookup")
		}
	}
	return l, nil
}

// matchCity picks the catalogue city named in the address, else the nearest
// catalogue city within MaxCityMiles, else keeps the address name alone.
func (p *Provider) matchCity(l *Lookup, names []string) {
	cities := p.opts.Cities()
	for _, name := range names {
		want := config.NormalizeCity(name)
		for _, c := range cities {
			if config.NormalizeCity(c.Name) == want {
				l.setCity(c)
				return
			}
		}
	}

	centres := make([]orb.Point, len(cities))
	for i, c := range cities {
		centres[i] = c.Center()
	}
	if i, d := geometry.Nearest(l.Point, centres); i >= 0 && d <= MaxCityMiles {
		l.setCity(cities[i])
		return
	}
	if len(names) > 0 {
		l.City = names[0]
	}
}

func (l *Lookup) setCity(c config.City) {
	l.City = c.Name
	l.CityCentre = c.Center()
	l.Population = c.Population
	l.About = c.About
}

func (p *Provider) estimate(l *Lookup) {
	if l.CityCentre.Equal(orb.Point{}) {
		return
	}
	l.DistanceMiles = geometry.DistanceMiles(l.Point, l.CityCentre)
	l.CarMinutes = geometry.TravelMinutes(l.DistanceMiles, p.opts.CarMPH)
	if l.Station != nil {
		ride := geometry.DistanceMiles(l.Station.Point, l.CityCentre)
		l.TransitMinutes = l.Station.WalkMinutes + geometry.TravelMinutes(ride, p.opts.TransitMPH)
	} else {
		l.TransitMinutes = geometry.TravelMinutes(l.DistanceMiles, p.opts.TransitMPH)
	}
}

type nominatimAddress struct {
	City     string `json:"city"`
	Town     string `json:"town"`
	Village  string `json:"village"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
}

func (a nominatimAddress) cityNames() []string {
	var out []string
	for _, n := range []string{a.City, a.Town, a.Village, a.County} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

type nominatimResult struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

func (p *Provider) search(ctx context.Context, q string) (*nominatimResult, error) {
	params := url.Values{
		"q":              []string{q},
		"format":         []string{"json"},
		"limit":          []string{"1"},
		"countrycodes":   []string{p.opts.CountryCodes},
		"addressdetails": []string{"1"},
	}
	endpoint := strings.TrimRight(p.opts.NominatimURL, "/") + "/search?" + params.Encode()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var results []nominatimResult
	if err := p.do(req, &results); err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	if len(results) == 0 {
		p.logger.WithField("query", q).Warn("No results found")
		return nil, fmt.Errorf("%s: %w", q, ErrNotFound)
	}
	return &results[0], nil
}

type overpassElement struct {
	Type string            `json:"type"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func (p *Provider) transport(ctx context.Context, l *Lookup) error {
	if p.opts.OverpassURL == "" {
		return nil
	}
	around := fmt.Sprintf("(around:%.0f,%f,%f)", p.opts.SearchRadius, l.Point.Lat(), l.Point.Lon())
	query := fmt.Sprintf(`[out:json][timeout:%d];node["railway"="station"]%s;out body;relation["route"="bus"]%s;out tags;`,
		int(p.opts.Timeout.Seconds()), around, around)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.OverpassURL,
		strings.NewReader(url.Values{"data": []string{query}}.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := p.do(req, &resp); err != nil {
		return fmt.Errorf("overpass request failed: %w", err)
	}

	var stations []overpassElement
	routes := make(map[string]bool)
	for _, e := range resp.Elements {
		switch {
		case e.Type == "node" && e.Tags["railway"] == "station":
			stations = append(stations, e)
		case e.Type == "relation" && e.Tags["route"] == "bus" && e.Tags["ref"] != "":
			routes[e.Tags["ref"]] = true
		}
	}

	points := make([]orb.Point, len(stations))
	for i, s := range stations {
		points[i] = orb.Point{s.Lon, s.Lat}
	}
	if i, d := geometry.Nearest(l.Point, points); i >= 0 {
		l.Station = &Place{
			Name:          stations[i].Tags["name"],
			Point:         points[i],
			DistanceMiles: d,
			WalkMinutes:   geometry.TravelMinutes(d, p.opts.WalkMPH),
		}
	}

	for r := range routes {
		l.BusRoutes = append(l.BusRoutes, r)
	}
	sortRoutes(l.BusRoutes)
	return nil
}

func (p *Provider) do(req *http.Request, dest interface{}) error {
	req.Header.Set("User-Agent", p.opts.UserAgent)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// wait spaces Nominatim requests by MinInterval, as its usage policy asks.
func (p *Provider) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d := time.Until(p.last.Add(p.opts.MinInterval)); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	p.last = time.Now()
	return nil
}

// sortRoutes orders route numbers numerically, then the rest by name.
func sortRoutes(routes []string) {
	sort.Slice(routes, func(i, j int) bool {
		ni, errI := strconv.Atoi(routes[i])
		nj, errJ := strconv.Atoi(routes[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return routes[i] < routes[j]
	})
}
