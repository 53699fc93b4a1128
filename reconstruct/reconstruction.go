package reconstruct

import (
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
	"sfm/epipolar"
	"sfm/track"
)

// Reconstruction accumulates the cameras and homogeneous scene points of an
// incremental projective reconstruction. The first camera is always the
// canonical [I|0]; later cameras come from the two-view bootstrap and from
// resection.
type Reconstruction struct {
	Cameras []*camera.Camera
	Points  *mat.Dense

	logger golog.Logger
}

// NewTwoView bootstraps a reconstruction from a fundamental matrix and the
// matched image points of two views: the second camera is synthesized from
// f and the correspondences are triangulated under the canonical pair.
func NewTwoView(f mat.Matrix, pts1, pts2 []r2.Point, logger golog.Logger) (*Reconstruction, error) {
	second, err := epipolar.CameraFromFundamental(f)
	if err != nil {
		return nil, err
	}
	first := camera.NewCanonical()
	points, err := epipolar.Triangulate(first, second, pts1, pts2)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugf("bootstrapped a two-view reconstruction with %d points", len(pts1))
	}
	return &Reconstruction{
		Cameras: []*camera.Camera{first, second},
		Points:  points,
		logger:  logger,
	}, nil
}

// ReprojectionError scores the current points against the observations of
// the first two views.
func (rec *Reconstruction) ReprojectionError(pts1, pts2 []r2.Point) (float64, error) {
	if len(rec.Cameras) < 2 {
		return 0, errors.New("reconstruction has no camera pair")
	}
	return epipolar.ReprojectionError(rec.Points, rec.Cameras[0], rec.Cameras[1], pts1, pts2)
}

// Upgrade applies a frame homography to the reconstruction in place,
// replacing points and cameras together.
func (rec *Reconstruction) Upgrade(h mgl64.Mat4) error {
	points, cams, err := Transform(h, rec.Points, rec.Cameras)
	if err != nil {
		return err
	}
	rec.Points = points
	rec.Cameras = cams
	return nil
}

// AddView resects the camera of a view against the track store and appends
// it to the reconstruction.
func (rec *Reconstruction) AddView(store *track.Store, view int, src *rand.Rand) (*camera.Camera, error) {
	cam, err := Resect(store, view, src, rec.logger)
	if err != nil {
		return nil, err
	}
	rec.Cameras = append(rec.Cameras, cam)
	return cam, nil
}
