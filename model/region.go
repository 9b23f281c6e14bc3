package model

// Point is a 2D position in map (SVG user-space) units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Region is a single colorable area of a map.
//
// Shape and Anchor are rendering metadata only; they never influence
// validation or replay.
type Region struct {
	ID string `json:"id" yaml:"id"`
	// Shape is an SVG path ("M50,50 L150,30 ... Z") outlining the region.
	Shape string `json:"shape,omitempty" yaml:"shape,omitempty"`
	// Anchor is where a view places the region's label. Zero means
	// "let the view decide".
	Anchor Point `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// HasShape reports whether geometric metadata is attached to the region.
func (r Region) HasShape() bool { return r.Shape != "" }

// Adjacency is an unordered "must differ in color" pair of region IDs.
type Adjacency [2]string

// Key returns a canonical representation of the pair so that (A,B) and
// (B,A) compare equal.
func (a Adjacency) Key() Adjacency {
	if a[1] < a[0] {
		return Adjacency{a[1], a[0]}
	}
	return a
}

// Touches reports whether the pair references region id.
func (a Adjacency) Touches(id string) bool { return a[0] == id || a[1] == id }
