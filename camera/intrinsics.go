package camera

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Intrinsics are the pinhole parameters read off an upper-triangular
// intrinsic matrix.
type Intrinsics struct {
	Fx   float64 `json:"fx"`
	Fy   float64 `json:"fy"`
	Skew float64 `json:"skew"`
	Ppx  float64 `json:"ppx"`
	Ppy  float64 `json:"ppy"`
}

// IntrinsicsFromMatrix reads the pinhole parameters from a 3x3 intrinsic
// matrix, rescaling so the bottom-right entry counts as 1.
func IntrinsicsFromMatrix(k mat.Matrix) (*Intrinsics, error) {
	rows, cols := k.Dims()
	if rows != 3 || cols != 3 {
		return nil, errors.Errorf("intrinsic matrix must be 3x3, got %dx%d", rows, cols)
	}
	s := k.At(2, 2)
	if s == 0 {
		return nil, errors.New("intrinsic matrix has zero scale")
	}
	return &Intrinsics{
		Fx:   k.At(0, 0) / s,
		Fy:   k.At(1, 1) / s,
		Skew: k.At(0, 1) / s,
		Ppx:  k.At(0, 2) / s,
		Ppy:  k.At(1, 2) / s,
	}, nil
}

// CheckValid returns an error unless both focal lengths are positive.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return errors.New("intrinsics are nil")
	}
	if in.Fx <= 0 || in.Fy <= 0 {
		return errors.Errorf("focal lengths must be positive, got fx=%v fy=%v", in.Fx, in.Fy)
	}
	return nil
}

// Matrix rebuilds the upper-triangular intrinsic matrix.
func (in *Intrinsics) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	m.Set(0, 0, in.Fx)
	m.Set(0, 1, in.Skew)
	m.Set(0, 2, in.Ppx)
	m.Set(1, 1, in.Fy)
	m.Set(1, 2, in.Ppy)
	m.Set(2, 2, 1)
	return m
}
