package reconstruct

import (
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
	"sfm/track"
)

// a generic ground-truth camera for resection scenarios
func testTruthCamera(t *testing.T) *camera.Camera {
	t.Helper()
	cam, err := camera.New(mat.NewDense(3, 4, []float64{
		0.9, -0.1, 0.2, 0.3,
		0.1, 1.0, -0.3, -0.2,
		-0.2, 0.3, 1.1, 1,
	}))
	test.That(t, err, test.ShouldBeNil)
	return cam
}

// randomScene samples a reproducible cloud in front of the camera.
func randomScene(n int) []mgl64.Vec4 {
	r := rand.New(rand.NewSource(42))
	scene := make([]mgl64.Vec4, n)
	for i := range scene {
		scene[i] = mgl64.Vec4{
			r.Float64()*4 - 2,
			r.Float64()*4 - 2,
			4 + r.Float64()*4,
			1,
		}
	}
	return scene
}

func observe(cam *camera.Camera, pt mgl64.Vec4) r2.Point {
	proj := cam.ProjectPoint(pt)
	return r2.Point{X: proj.X / proj.Z, Y: proj.Y / proj.Z}
}

// storeForView fills a track store with triangulated tracks observed by cam
// in the given view, corrupting the observations at the outlier indices.
func storeForView(cam *camera.Camera, scene []mgl64.Vec4, view int, outliers map[int]r2.Point) *track.Store {
	store := track.NewStore()
	for i, pt := range scene {
		obs := observe(cam, pt)
		if shift, ok := outliers[i]; ok {
			obs = obs.Add(shift)
		}
		tk := track.New(map[int]r2.Point{view: obs})
		tk.Point = pt
		store.Add(tk)
	}
	return store
}

func normalizedProj(cam *camera.Camera) *mat.Dense {
	var out mat.Dense
	out.Scale(1/cam.ProjMat.At(2, 3), cam.ProjMat)
	return &out
}

func TestResectAllInliers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := testTruthCamera(t)
	store := storeForView(truth, randomScene(40), 3, nil)

	got, err := Resect(store, 3, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldBeNil)

	want := normalizedProj(truth)
	gotNorm := normalizedProj(got)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, gotNorm.At(i, j), test.ShouldAlmostEqual, want.At(i, j), 1e-6)
		}
	}
}

func TestResectWithOutliers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := testTruthCamera(t)
	scene := randomScene(30)
	outliers := map[int]r2.Point{
		4:  {X: 2.5, Y: -1.1},
		17: {X: -1.7, Y: 2.2},
	}
	store := storeForView(truth, scene, 0, outliers)

	got, err := Resect(store, 0, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldBeNil)

	want := normalizedProj(truth)
	gotNorm := normalizedProj(got)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, gotNorm.At(i, j), test.ShouldAlmostEqual, want.At(i, j), 1e-6)
		}
	}

	// the fitted camera reprojects every clean track exactly
	for i, pt := range scene {
		if _, ok := outliers[i]; ok {
			continue
		}
		obs := observe(truth, pt)
		reproj := observe(got, pt)
		test.That(t, reproj.X, test.ShouldAlmostEqual, obs.X, 1e-6)
		test.That(t, reproj.Y, test.ShouldAlmostEqual, obs.Y, 1e-6)
	}
}

func TestResectManyOutliers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := testTruthCamera(t)
	scene := randomScene(100)

	// every fifth observation is corrupted, a 20% outlier fraction
	r := rand.New(rand.NewSource(3))
	outliers := map[int]r2.Point{}
	for i := 0; i < 100; i += 5 {
		outliers[i] = r2.Point{X: 1 + r.Float64()*2, Y: -(1 + r.Float64()*2)}
	}
	store := storeForView(truth, scene, 2, outliers)

	got, err := Resect(store, 2, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldBeNil)

	want := normalizedProj(truth)
	gotNorm := normalizedProj(got)
	test.That(t, mat.EqualApprox(gotNorm, want, 1e-6), test.ShouldBeTrue)

	for i, pt := range scene {
		if _, ok := outliers[i]; ok {
			continue
		}
		obs := observe(truth, pt)
		reproj := observe(got, pt)
		test.That(t, reproj.X, test.ShouldAlmostEqual, obs.X, 1e-6)
		test.That(t, reproj.Y, test.ShouldAlmostEqual, obs.Y, 1e-6)
	}
}

func TestResectDeterministic(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := testTruthCamera(t)
	scene := randomScene(25)
	outliers := map[int]r2.Point{8: {X: 3, Y: 3}}

	first, err := Resect(storeForView(truth, scene, 1, outliers), 1, rand.New(rand.NewSource(7)), logger)
	test.That(t, err, test.ShouldBeNil)
	second, err := Resect(storeForView(truth, scene, 1, outliers), 1, rand.New(rand.NewSource(7)), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(first.ProjMat, second.ProjMat), test.ShouldBeTrue)
}

func TestResectInsufficientCorrespondences(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := testTruthCamera(t)
	store := storeForView(truth, randomScene(5), 0, nil)

	// tracks without a scene point or outside the view do not count
	untriangulated := track.New(map[int]r2.Point{0: {X: 1, Y: 1}})
	elsewhere := track.New(map[int]r2.Point{4: {X: 1, Y: 1}})
	elsewhere.Point = mgl64.Vec4{1, 1, 5, 1}
	store.Add(untriangulated, elsewhere)

	_, err := Resect(store, 0, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldWrap, ErrInsufficientCorrespondences)
}

func TestResectInsufficientInliers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// three pairs of coincident scene points with contradictory
	// observations: no camera can satisfy more than one of each pair
	locations := []mgl64.Vec4{
		{0, 0, 5, 1},
		{2, -1, 6, 1},
		{-1, 2, 4, 1},
	}
	views := [][2]r2.Point{
		{{X: 0, Y: 0}, {X: 5, Y: 5}},
		{{X: 3, Y: -2}, {X: -4, Y: 6}},
		{{X: -2, Y: 4}, {X: 7, Y: -3}},
	}
	store := track.NewStore()
	for i, loc := range locations {
		for k := 0; k < 2; k++ {
			tk := track.New(map[int]r2.Point{0: views[i][k]})
			tk.Point = loc
			store.Add(tk)
		}
	}

	_, err := Resect(store, 0, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInsufficientInliers), test.ShouldBeTrue)
}
