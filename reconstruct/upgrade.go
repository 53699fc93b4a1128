package reconstruct

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
	"sfm/projgeom"
)

// Transform moves a reconstruction through the 4x4 frame homography h:
// points become h*X rescaled to unit homogeneous coordinate and every
// camera becomes P*h^-1, so all projections are preserved. Points are the
// columns of a 4xN matrix. A singular h cannot change frames and is an
// error.
func Transform(h mgl64.Mat4, points *mat.Dense, cams []*camera.Camera) (*mat.Dense, []*camera.Camera, error) {
	rows, cols := points.Dims()
	if rows != 4 {
		return nil, nil, errors.Errorf("expected a 4xN point matrix, got %dx%d", rows, cols)
	}
	hd := projgeom.DenseFromMat4(h)
	var hInv mat.Dense
	if err := hInv.Inverse(hd); err != nil {
		return nil, nil, errors.Wrap(err, "frame homography is not invertible")
	}

	var upgraded mat.Dense
	upgraded.Mul(hd, points)
	projgeom.NormalizeHomogeneousCols(&upgraded)

	out := make([]*camera.Camera, len(cams))
	for i, cam := range cams {
		var m mat.Dense
		m.Mul(cam.ProjMat, &hInv)
		moved, err := camera.New(&m)
		if err != nil {
			return nil, nil, err
		}
		out[i] = moved
	}
	return &upgraded, out, nil
}
