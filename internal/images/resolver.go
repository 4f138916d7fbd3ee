package images

// Role names a position in the document that shows an image.
type Role string

const (
	RoleCoverHero      Role = "cover_hero"
	RoleCoverThumbnail Role = "cover_thumbnail"
	RoleKeyInfoHero    Role = "key_info_hero"
	RoleFloorPlan      Role = "floor_plan"
	RoleGallery        Role = "gallery"
	RoleDirections     Role = "directions"
	RoleCity           Role = "city"
)

// MaxCoverThumbnails caps the thumbnail strip under the cover hero.
const MaxCoverThumbnails = 3

// CitySlots is the fixed size of the city triptych.
const CitySlots = 3

// Slot is one image position. An empty Path means no image was supplied;
// whether a supplied path can actually be drawn is decided later by
// ResolveSlot.
type Slot struct {
	Role  Role   `json:"role"`
	Index int    `json:"index"`
	Path  string `json:"path,omitempty"`
}

// Empty reports whether the slot has no image assigned.
func (s Slot) Empty() bool { return s.Path == "" }

// ResolvedSlots names every image-bearing position of the report.
type ResolvedSlots struct {
	CoverHero       Slot            `json:"cover_hero"`
	CoverThumbnails []Slot          `json:"cover_thumbnails"`
	KeyInfoHero     Slot            `json:"key_info_hero"`
	FloorPlans      []Slot          `json:"floor_plans"`
	Gallery         []Slot          `json:"gallery"`
	Directions      Slot            `json:"directions"`
	City            [CitySlots]Slot `json:"city"`
}

// Resolve assigns the images of a collection to document slots.
func Resolve(c *Collection) ResolvedSlots {
	return ResolveSections(c.Sections())
}

// ResolveSections assigns images to slots:
//
//   - cover hero: first cover image, else first property image, else the
//     first image of floor_plans, directions, city (in that order)
//   - thumbnails: remaining cover images, then property images other than
//     the hero, at most three
//   - key information hero: first property image that is not the cover
//     hero, else the cover hero
//   - floor plans and gallery: one slot per image, or a single empty slot
//   - directions: first directions image
//   - city: first three city images, padded with empty slots
//
// It never fails; missing content becomes empty slots.
func ResolveSections(sections map[SectionTag][]string) ResolvedSlots {
	cover := sections[SectionCover]
	property := sections[SectionProperty]

	var out ResolvedSlots

	hero := firstOf(cover, property, sections[SectionFloorPlans], sections[SectionDirections], sections[SectionCity])
	out.CoverHero = Slot{Role: RoleCoverHero, Path: hero}

	var thumbs []string
	if len(cover) > 1 {
		thumbs = append(thumbs, cover[1:]...)
	}
	for _, p := range property {
		if p != hero {
			thumbs = append(thumbs, p)
		}
	}
	if len(thumbs) > MaxCoverThumbnails {
		thumbs = thumbs[:MaxCoverThumbnails]
	}
	out.CoverThumbnails = make([]Slot, len(thumbs))
	for i, p := range thumbs {
		out.CoverThumbnails[i] = Slot{Role: RoleCoverThumbnail, Index: i, Path: p}
	}

	keyHero := hero
	for _, p := range property {
		if p != hero {
			keyHero = p
			break
		}
	}
	out.KeyInfoHero = Slot{Role: RoleKeyInfoHero, Path: keyHero}

	out.FloorPlans = listSlots(RoleFloorPlan, sections[SectionFloorPlans])
	out.Gallery = listSlots(RoleGallery, property)

	out.Directions = Slot{Role: RoleDirections, Path: firstOf(sections[SectionDirections])}

	city := sections[SectionCity]
	for i := range out.City {
		out.City[i] = Slot{Role: RoleCity, Index: i}
		if i < len(city) {
			out.City[i].Path = city[i]
		}
	}

	return out
}

// All returns every slot in document order.
func (r ResolvedSlots) All() []Slot {
	out := []Slot{r.CoverHero}
	out = append(out, r.CoverThumbnails...)
	out = append(out, r.KeyInfoHero)
	out = append(out, r.FloorPlans...)
	out = append(out, r.Gallery...)
	out = append(out, r.Directions)
	out = append(out, r.City[:]...)
	return out
}

// listSlots returns one slot per path, or a single empty slot so the page
// that shows the list always renders.
func listSlots(role Role, paths []string) []Slot {
	if len(paths) == 0 {
		return []Slot{{Role: role}}
	}
	out := make([]Slot, len(paths))
	for i, p := range paths {
		out[i] = Slot{Role: role, Index: i, Path: p}
	}
	return out
}

func firstOf(lists ...[]string) string {
	for _, l := range lists {
		if len(l) > 0 {
			return l[0]
		}
	}
	return ""
}
