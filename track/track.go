// Package track stores feature tracks for incremental reconstruction: each
// track pairs an estimated scene point with the image observations of that
// point across views.
package track

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
)

// Track is a single scene point observed in one or more views. Point holds
// homogeneous coordinates and stays the zero value until the point has been
// triangulated; a zero scale component marks it untriangulated.
// Observations maps a view index to the image location of the point in that
// view.
type Track struct {
	Point        mgl64.Vec4
	Observations map[int]r2.Point
}

// New returns an untriangulated track with the given observations.
func New(observations map[int]r2.Point) *Track {
	if observations == nil {
		observations = map[int]r2.Point{}
	}
	return &Track{Observations: observations}
}

// Triangulated reports whether the track carries a usable scene point.
func (tk *Track) Triangulated() bool {
	return tk.Point.W() != 0
}

// Observe records the image location of the track in a view, replacing any
// earlier observation for that view.
func (tk *Track) Observe(view int, pt r2.Point) {
	if tk.Observations == nil {
		tk.Observations = map[int]r2.Point{}
	}
	tk.Observations[view] = pt
}

// Store is an append-only collection of tracks shared by the reconstruction
// operations.
type Store struct {
	tracks []*Track
}

// NewStore returns an empty track store.
func NewStore() *Store {
	return &Store{}
}

// Add appends tracks to the store.
func (s *Store) Add(tracks ...*Track) {
	s.tracks = append(s.tracks, tracks...)
}

// Size returns the number of stored tracks.
func (s *Store) Size() int {
	return len(s.tracks)
}

// At returns the i-th track.
func (s *Store) At(i int) *Track {
	return s.tracks[i]
}

// Correspondences collects the scene points and matching image observations
// available for a view: every triangulated track observed in that view
// contributes one pair, in store order. Tracks are read, never modified.
func (s *Store) Correspondences(view int) ([]mgl64.Vec4, []r2.Point) {
	var pts3d []mgl64.Vec4
	var pts2d []r2.Point
	for _, tk := range s.tracks {
		obs, ok := tk.Observations[view]
		if !ok || !tk.Triangulated() {
			continue
		}
		pts3d = append(pts3d, tk.Point)
		pts2d = append(pts2d, obs)
	}
	return pts3d, pts2d
}
