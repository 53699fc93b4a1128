// Package epipolar implements two-view geometry on top of the projective
// camera model: validation of fundamental matrices, synthesis of a camera
// pair compatible with one, linear triangulation of correspondences and
// reprojection diagnostics.
package epipolar

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
	"sfm/projgeom"
)

// ErrDegenerateFundamental is returned when a matrix offered as a
// fundamental matrix is not 3x3 of rank exactly 2.
var ErrDegenerateFundamental = errors.New("fundamental matrix must be 3x3 with rank 2")

// rankTol is the relative singular value cutoff for rank decisions.
const rankTol = 1e-15

func validateFundamental(f mat.Matrix) error {
	rows, cols := f.Dims()
	if rows != 3 || cols != 3 {
		return errors.Wrapf(ErrDegenerateFundamental, "got a %dx%d matrix", rows, cols)
	}
	var svd mat.SVD
	if ok := svd.Factorize(f, mat.SVDThin); !ok {
		return errors.Wrap(ErrDegenerateFundamental, "factorization failed")
	}
	if rank := svd.Rank(rankTol); rank != 2 {
		return errors.Wrapf(ErrDegenerateFundamental, "rank %d", rank)
	}
	return nil
}

// Epipole returns the epipole of the second view, the homogeneous image
// point generating the null space of the transposed fundamental matrix.
func Epipole(f mat.Matrix) (r3.Vector, error) {
	if err := validateFundamental(f); err != nil {
		return r3.Vector{}, err
	}
	null, err := projgeom.Nullspace(f.T())
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: null.AtVec(0), Y: null.AtVec(1), Z: null.AtVec(2)}, nil
}

// CameraFromFundamental synthesizes the second camera of a canonical
// projective pair from a fundamental matrix, with the first camera fixed at
// [I|0]: P2 = [ [e]x F | e ] where e is the second-view epipole. Any camera
// pair with this fundamental matrix differs from the synthesized one by a
// projective frame change only.
func CameraFromFundamental(f mat.Matrix) (*camera.Camera, error) {
	e, err := Epipole(f)
	if err != nil {
		return nil, err
	}
	var left mat.Dense
	left.Mul(projgeom.Hat(e), f)
	var p mat.Dense
	p.Augment(&left, mat.NewDense(3, 1, []float64{e.X, e.Y, e.Z}))
	return camera.New(&p)
}
