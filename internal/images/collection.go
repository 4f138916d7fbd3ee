package images

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrDuplicateImage is returned when a path is already in the collection.
	ErrDuplicateImage = errors.New("image already in collection")
	// ErrUnknownImage is returned when an operation names a path that is not
	// in the collection.
	ErrUnknownImage = errors.New("image not in collection")
	// ErrUnknownSection is returned for tags outside the closed set.
	ErrUnknownSection = errors.New("unknown section")
)

// Extensions lists the file types picked up by LoadDir.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// ImageRef is a single image and the section it is assigned to. Each path is
// stored once, so an image can never sit in two sections.
type ImageRef struct {
	Path    string     `json:"path"`
	Section SectionTag `json:"section"`
}

// Collection is the ordered set of images for one report. Order within a
// section is the order of insertion, adjusted by MoveUp/MoveDown.
type Collection struct {
	refs       []ImageRef
	classifier *Classifier
}

// NewCollection returns an empty collection. The classifier is used by Add;
// nil selects the default rules.
func NewCollection(c *Classifier) *Collection {
	if c == nil {
		c = NewClassifier()
	}
	return &Collection{classifier: c}
}

// FromSections builds a collection from a section -> paths mapping, keeping
// the order of each list. Entries that cannot be placed are skipped and
// returned: unknown section names (ErrUnknownSection) and paths already
// assigned to an earlier section (ErrDuplicateImage, first assignment wins).
func FromSections(sections map[string][]string, c *Classifier) (*Collection, []error) {
	var skipped []error
	var unknown []string
	for name := range sections {
		if !SectionTag(name).Valid() {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		skipped = append(skipped, fmt.Errorf("%w: %q", ErrUnknownSection, name))
	}

	col := NewCollection(c)
	for _, tag := range Sections {
		for _, p := range sections[string(tag)] {
			if err := col.AddTo(p, tag); err != nil {
				skipped = append(skipped, err)
			}
		}
	}
	return col, skipped
}

// LoadDir adds every image file in dir, sorted by name, classified by the
// collection's rules.
func LoadDir(dir string, c *Classifier) (*Collection, error) {
	col := NewCollection(c)
	if err := col.AddDir(dir); err != nil {
		return nil, err
	}
	return col, nil
}

// AddDir classifies and adds the image files found in dir. Files already in
// the collection are skipped.
func (c *Collection) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read image directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !hasImageExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		p := filepath.Join(dir, n)
		if c.index(p) >= 0 {
			continue
		}
		c.Add(p)
	}
	return nil
}

// Add classifies path and appends it to its section. Adding a path that is
// already present keeps the existing assignment.
func (c *Collection) Add(path string) SectionTag {
	if i := c.index(path); i >= 0 {
		return c.refs[i].Section
	}
	tag := c.classifier.Classify(path)
	c.refs = append(c.refs, ImageRef{Path: path, Section: tag})
	return tag
}

// AddTo appends path to an explicit section.
func (c *Collection) AddTo(path string, tag SectionTag) error {
	if !tag.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, tag)
	}
	if c.index(path) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateImage, path)
	}
	c.refs = append(c.refs, ImageRef{Path: path, Section: tag})
	return nil
}

// Move reassigns path to another section; it becomes the last image there.
func (c *Collection) Move(path string, to SectionTag) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, to)
	}
	i := c.index(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, path)
	}
	ref := c.refs[i]
	if ref.Section == to {
		return nil
	}
	c.refs = append(c.refs[:i], c.refs[i+1:]...)
	ref.Section = to
	c.refs = append(c.refs, ref)
	return nil
}

// Remove drops path from the collection.
func (c *Collection) Remove(path string) error {
	i := c.index(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, path)
	}
	c.refs = append(c.refs[:i], c.refs[i+1:]...)
	return nil
}

// MoveUp swaps path with the previous image of the same section. It is a
// no-op for the first image.
func (c *Collection) MoveUp(path string) error {
	return c.shift(path, -1)
}

// MoveDown swaps path with the next image of the same section. It is a
// no-op for the last image.
func (c *Collection) MoveDown(path string) error {
	return c.shift(path, 1)
}

func (c *Collection) shift(path string, dir int) error {
	i := c.index(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, path)
	}
	tag := c.refs[i].Section
	for j := i + dir; j >= 0 && j < len(c.refs); j += dir {
		if c.refs[j].Section == tag {
			c.refs[i], c.refs[j] = c.refs[j], c.refs[i]
			return nil
		}
	}
	return nil
}

// Section returns the paths of one section in order.
func (c *Collection) Section(tag SectionTag) []string {
	var out []string
	for _, r := range c.refs {
		if r.Section == tag {
			out = append(out, r.Path)
		}
	}
	return out
}

// Sections returns the section -> paths mapping. Every tag is present.
func (c *Collection) Sections() map[SectionTag][]string {
	out := make(map[SectionTag][]string, len(Sections))
	for _, tag := range Sections {
		out[tag] = c.Section(tag)
	}
	return out
}

// Refs returns a copy of every image in insertion order.
func (c *Collection) Refs() []ImageRef {
	return append([]ImageRef(nil), c.refs...)
}

// SectionOf returns the tag path is assigned to.
func (c *Collection) SectionOf(path string) (SectionTag, bool) {
	if i := c.index(path); i >= 0 {
		return c.refs[i].Section, true
	}
	return "", false
}

// Len returns the number of images.
func (c *Collection) Len() int {
	return len(c.refs)
}

func (c *Collection) index(path string) int {
	for i, r := range c.refs {
		if r.Path == path {
			return i
		}
	}
	return -1
}

func hasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
