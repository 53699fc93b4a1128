// Package projgeom provides the projective-geometry primitives shared by the
// reconstruction pipeline: conversions between Euclidean and homogeneous
// coordinates, cross-product matrices, SVD null spaces and the isotropic
// point-set conditioning used by linear estimation methods.
package projgeom

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Homogenize lifts Euclidean image points to homogeneous coordinates with
// unit scale.
func Homogenize(pts []r2.Point) []r3.Vector {
	out := make([]r3.Vector, len(pts))
	for i, pt := range pts {
		out[i] = r3.Vector{X: pt.X, Y: pt.Y, Z: 1}
	}
	return out
}

// Dehomogenize converts a homogeneous image point back to Euclidean
// coordinates. The scale component must be nonzero.
func Dehomogenize(pt r3.Vector) r2.Point {
	return r2.Point{X: pt.X / pt.Z, Y: pt.Y / pt.Z}
}

// DehomogenizeCols converts a 3xN matrix of homogeneous image points, one
// point per column, to Euclidean points.
func DehomogenizeCols(m mat.Matrix) ([]r2.Point, error) {
	rows, cols := m.Dims()
	if rows != 3 {
		return nil, errors.Errorf("expected a 3xN matrix of homogeneous image points, got %dx%d", rows, cols)
	}
	out := make([]r2.Point, cols)
	for j := 0; j < cols; j++ {
		w := m.At(2, j)
		out[j] = r2.Point{X: m.At(0, j) / w, Y: m.At(1, j) / w}
	}
	return out, nil
}

// NormalizeHomogeneousCols rescales every column of a homogeneous point
// matrix in place so that its last row becomes 1.
func NormalizeHomogeneousCols(m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		w := m.At(rows-1, j)
		for i := 0; i < rows; i++ {
			m.Set(i, j, m.At(i, j)/w)
		}
	}
}

// Hat returns the skew-symmetric cross-product matrix [v]x, the 3x3 matrix
// satisfying [v]x w = v x w for every 3-vector w.
func Hat(v r3.Vector) *mat.Dense {
	hat := mat.NewDense(3, 3, nil)
	hat.Set(0, 1, -v.Z)
	hat.Set(0, 2, v.Y)
	hat.Set(1, 0, v.Z)
	hat.Set(1, 2, -v.X)
	hat.Set(2, 0, -v.Y)
	hat.Set(2, 1, v.X)
	return hat
}

// Nullspace returns the right singular vector paired with the smallest
// singular value of m, a generator of its (approximate) right null space.
func Nullspace(m mat.Matrix) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize matrix")
	}
	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()
	null := mat.NewVecDense(cols, nil)
	null.CopyVec(v.ColView(cols - 1))
	return null, nil
}

// PointMatrix packs homogeneous 3D points into a 4xN matrix, one point per
// column. The input must not be empty.
func PointMatrix(pts []mgl64.Vec4) *mat.Dense {
	m := mat.NewDense(4, len(pts), nil)
	for j, pt := range pts {
		for i := 0; i < 4; i++ {
			m.Set(i, j, pt[i])
		}
	}
	return m
}

// PointsFromMatrix unpacks a 4xN homogeneous point matrix into a slice of
// points.
func PointsFromMatrix(m mat.Matrix) ([]mgl64.Vec4, error) {
	rows, cols := m.Dims()
	if rows != 4 {
		return nil, errors.Errorf("expected a 4xN matrix of homogeneous points, got %dx%d", rows, cols)
	}
	out := make([]mgl64.Vec4, cols)
	for j := 0; j < cols; j++ {
		out[j] = mgl64.Vec4{m.At(0, j), m.At(1, j), m.At(2, j), m.At(3, j)}
	}
	return out, nil
}

// DenseFromMat4 converts a fixed-size 4x4 transform to a dense matrix.
func DenseFromMat4(m mgl64.Mat4) *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
