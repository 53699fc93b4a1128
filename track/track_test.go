package track

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestTrackTriangulated(t *testing.T) {
	tk := New(nil)
	test.That(t, tk.Triangulated(), test.ShouldBeFalse)

	tk.Point = mgl64.Vec4{1, 2, 3, 1}
	test.That(t, tk.Triangulated(), test.ShouldBeTrue)

	// a zero scale marks the point unset even when xyz are filled in
	tk.Point = mgl64.Vec4{1, 2, 3, 0}
	test.That(t, tk.Triangulated(), test.ShouldBeFalse)
}

func TestTrackObserve(t *testing.T) {
	tk := &Track{}
	tk.Observe(0, r2.Point{X: 1, Y: 2})
	tk.Observe(0, r2.Point{X: 3, Y: 4})
	tk.Observe(2, r2.Point{X: 5, Y: 6})
	test.That(t, len(tk.Observations), test.ShouldEqual, 2)
	test.That(t, tk.Observations[0], test.ShouldResemble, r2.Point{X: 3, Y: 4})
	test.That(t, tk.Observations[2], test.ShouldResemble, r2.Point{X: 5, Y: 6})
}

func TestStoreCorrespondences(t *testing.T) {
	store := NewStore()
	test.That(t, store.Size(), test.ShouldEqual, 0)

	seen := New(map[int]r2.Point{0: {X: 1, Y: 1}, 2: {X: 3, Y: 3}})
	seen.Point = mgl64.Vec4{0.5, 0.5, 5, 1}

	unseen := New(map[int]r2.Point{0: {X: 2, Y: 2}})
	unseen.Point = mgl64.Vec4{1, 1, 4, 1}

	untriangulated := New(map[int]r2.Point{2: {X: 9, Y: 9}})

	store.Add(seen, unseen, untriangulated)
	test.That(t, store.Size(), test.ShouldEqual, 3)
	test.That(t, store.At(1), test.ShouldEqual, unseen)

	pts3d, pts2d := store.Correspondences(2)
	test.That(t, len(pts3d), test.ShouldEqual, 1)
	test.That(t, len(pts2d), test.ShouldEqual, 1)
	test.That(t, pts3d[0], test.ShouldResemble, mgl64.Vec4{0.5, 0.5, 5, 1})
	test.That(t, pts2d[0], test.ShouldResemble, r2.Point{X: 3, Y: 3})

	pts3d, pts2d = store.Correspondences(0)
	test.That(t, len(pts3d), test.ShouldEqual, 2)
	test.That(t, pts2d[1], test.ShouldResemble, r2.Point{X: 2, Y: 2})

	pts3d, pts2d = store.Correspondences(7)
	test.That(t, len(pts3d), test.ShouldEqual, 0)
	test.That(t, len(pts2d), test.ShouldEqual, 0)
}
