package camera

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/projgeom"
)

// MinCorrespondences is the smallest number of 3D-2D pairs that determines
// a camera matrix linearly.
const MinCorrespondences = 6

// EstimateMatrix recovers a camera matrix from at least 6 correspondences
// between homogeneous scene points and image points with the direct linear
// transform. Both point sets are conditioned first, the 2Nx12 constraint
// system derived from x cross P*X = 0 is assembled and solved for its null
// vector, and the conditioning similarities are undone so the result lives
// in the original frames. The result is scaled so its bottom-right entry
// is 1.
func EstimateMatrix(pts3d []mgl64.Vec4, pts2d []r2.Point) (*Camera, error) {
	if len(pts3d) != len(pts2d) {
		return nil, errors.Errorf("correspondence sets must have the same length, got %d and %d", len(pts3d), len(pts2d))
	}
	if len(pts3d) < MinCorrespondences {
		return nil, errors.Errorf("camera estimation requires at least %d correspondences, got %d", MinCorrespondences, len(pts3d))
	}

	norm3d, t1, err := projgeom.NormalizePoints3D(pts3d)
	if err != nil {
		return nil, err
	}
	norm2d, t2, err := projgeom.NormalizePoints2D(pts2d)
	if err != nil {
		return nil, err
	}

	// two rows per correspondence, unknowns are the entries of P row-major
	n := len(norm3d)
	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		scene := norm3d[i]
		x, y, w := norm2d[i].X, norm2d[i].Y, 1.0
		for k := 0; k < 4; k++ {
			a.Set(2*i, 4+k, -w*scene[k])
			a.Set(2*i, 8+k, y*scene[k])
			a.Set(2*i+1, k, w*scene[k])
			a.Set(2*i+1, 8+k, -x*scene[k])
		}
	}

	p, err := projgeom.Nullspace(a)
	if err != nil {
		return nil, errors.Wrap(err, "solving DLT constraint system")
	}
	conditioned := mat.NewDense(3, 4, p.RawVector().Data)

	// undo the conditioning: P = inv(T2) * Pn * T1
	var rhs mat.Dense
	rhs.Mul(conditioned, t1)
	var denorm mat.Dense
	if err := denorm.Solve(t2, &rhs); err != nil {
		return nil, errors.Wrap(err, "undoing image point conditioning")
	}
	denorm.Scale(1/denorm.At(2, 3), &denorm)

	return New(&denorm)
}
