package images

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Kind tells a real image from a placeholder.
type Kind int

const (
	KindPlaceholder Kind = iota
	KindReal
)

// PlaceholderReason explains why a placeholder is drawn.
type PlaceholderReason int

const (
	ReasonNone PlaceholderReason = iota
	// ReasonNoContent: no image was supplied for the slot.
	ReasonNoContent
	// ReasonUnreadable: a path was supplied but could not be opened or decoded.
	ReasonUnreadable
)

// String returns the caption printed inside the placeholder box.
func (r PlaceholderReason) String() string {
	switch r {
	case ReasonNoContent:
		return "No image provided"
	case ReasonUnreadable:
		return "Image not available"
	default:
		return ""
	}
}

// DefaultAspect is used for placeholders (4:3 landscape).
const DefaultAspect = 4.0 / 3.0

// Info is the header information of a decoded image.
type Info struct {
	Width  int
	Height int
	Format string
}

// Prober reads image dimensions without decoding pixels.
type Prober interface {
	Probe(path string) (Info, error)
}

// FileProber probes files on the local disk.
type FileProber struct{}

// Probe opens path and decodes its header.
func (FileProber) Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("image %s has no size", path)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// ResolvedImage is what the composer places in a slot: either a real image
// with its dimensions or a placeholder with a reason.
type ResolvedImage struct {
	Kind   Kind              `json:"kind"`
	Path   string            `json:"path,omitempty"`
	Reason PlaceholderReason `json:"reason,omitempty"`
	Info   Info              `json:"info"`
	Err    error             `json:"-"`
}

// Placeholder returns a placeholder image for the given reason.
func Placeholder(reason PlaceholderReason) ResolvedImage {
	return ResolvedImage{Kind: KindPlaceholder, Reason: reason}
}

// IsPlaceholder reports whether no real image will be drawn.
func (r ResolvedImage) IsPlaceholder() bool { return r.Kind == KindPlaceholder }

// AspectRatio returns width/height, or DefaultAspect for placeholders.
func (r ResolvedImage) AspectRatio() float64 {
	if r.Kind != KindReal || r.Info.Height == 0 {
		return DefaultAspect
	}
	return float64(r.Info.Width) / float64(r.Info.Height)
}

// ResolveSlot turns a slot into a drawable image. The file check happens
// here, at layout time: a path that has vanished or cannot be decoded since
// it was classified becomes a ReasonUnreadable placeholder.
func ResolveSlot(s Slot, p Prober) ResolvedImage {
	if s.Empty() {
		return Placeholder(ReasonNoContent)
	}
	if p == nil {
		p = FileProber{}
	}
	info, err := p.Probe(s.Path)
	if err != nil {
		ph := Placeholder(ReasonUnreadable)
		ph.Path = s.Path
		ph.Err = err
		return ph
	}
	return ResolvedImage{Kind: KindReal, Path: s.Path, Info: info}
}

// FitWithin scales an image of the given aspect ratio to the largest size
// that fits in maxW x maxH.
func FitWithin(aspect, maxW, maxH float64) (w, h float64) {
	if aspect <= 0 {
		aspect = DefaultAspect
	}
	w = maxW
	h = w / aspect
	if h > maxH {
		h = maxH
		w = h * aspect
	}
	return w, h
}
