// Package camera models the finite projective camera: construction and
// validation of 3x4 projection matrices, point projection, direct linear
// transform estimation from 3D-2D correspondences and factorization into
// intrinsic and extrinsic parameters.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/projgeom"
)

// Camera is a 3x4 projection matrix mapping homogeneous scene points to
// homogeneous image points up to scale.
type Camera struct {
	ProjMat *mat.Dense
}

// New wraps a projection matrix, rejecting any shape other than 3x4.
func New(m *mat.Dense) (*Camera, error) {
	rows, cols := m.Dims()
	if rows != 3 || cols != 4 {
		return nil, errors.Errorf("camera matrix must be 3x4, got %dx%d", rows, cols)
	}
	return &Camera{ProjMat: m}, nil
}

// NewCanonical returns the canonical first camera [I|0] of a projective
// reconstruction.
func NewCanonical() *Camera {
	m := mat.NewDense(3, 4, nil)
	m.Set(0, 0, 1)
	m.Set(1, 1, 1)
	m.Set(2, 2, 1)
	return &Camera{ProjMat: m}
}

// Project maps a 4xN matrix of homogeneous scene points through the camera,
// returning the 3xN homogeneous image points.
func (c *Camera) Project(points mat.Matrix) (*mat.Dense, error) {
	rows, cols := points.Dims()
	if rows != 4 {
		return nil, errors.Errorf("expected a 4xN point matrix, got %dx%d", rows, cols)
	}
	var proj mat.Dense
	proj.Mul(c.ProjMat, points)
	return &proj, nil
}

// ProjectPoint maps a single homogeneous scene point through the camera.
func (c *Camera) ProjectPoint(pt mgl64.Vec4) r3.Vector {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for k := 0; k < 4; k++ {
			out[i] += c.ProjMat.At(i, k) * pt[k]
		}
	}
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// Center returns the homogeneous camera center, the generator of the
// projection matrix's right null space.
func (c *Camera) Center() (mgl64.Vec4, error) {
	null, err := projgeom.Nullspace(c.ProjMat)
	if err != nil {
		return mgl64.Vec4{}, err
	}
	return mgl64.Vec4{null.AtVec(0), null.AtVec(1), null.AtVec(2), null.AtVec(3)}, nil
}

// Clone returns a camera backed by a copy of the projection matrix.
func (c *Camera) Clone() *Camera {
	return &Camera{ProjMat: mat.DenseCopyOf(c.ProjMat)}
}
