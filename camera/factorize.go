package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Factorize decomposes the camera as P = K[R|t]: K upper triangular with
// positive diagonal and unit bottom-right entry, R a proper rotation and t
// the translation solving K*t = P[:,3]. The diagonal of K is made positive
// by flipping the matching columns of K and rows of R together, and R and t
// are negated as a pair when det(R) < 0, so the product is preserved at
// every step. A camera with singular intrinsics cannot be factorized.
func (c *Camera) Factorize() (*mat.Dense, *mat.Dense, r3.Vector, error) {
	k, r := rq(c.ProjMat.Slice(0, 3, 0, 3))

	// positive diagonal, compensated in R
	for j := 0; j < 3; j++ {
		if k.At(j, j) < 0 {
			for i := 0; i < 3; i++ {
				k.Set(i, j, -k.At(i, j))
				r.Set(j, i, -r.At(j, i))
			}
		}
	}

	p4 := mat.NewVecDense(3, []float64{c.ProjMat.At(0, 3), c.ProjMat.At(1, 3), c.ProjMat.At(2, 3)})
	var t mat.VecDense
	if err := t.SolveVec(k, p4); err != nil {
		return nil, nil, r3.Vector{}, errors.Wrap(err, "camera has singular intrinsics")
	}
	trans := r3.Vector{X: t.AtVec(0), Y: t.AtVec(1), Z: t.AtVec(2)}

	if mat.Det(r) < 0 {
		r.Scale(-1, r)
		trans = trans.Mul(-1)
	}
	k.Scale(1/k.At(2, 2), k)

	return k, r, trans, nil
}

// rq factors a 3x3 matrix into an upper-triangular and an orthogonal part
// by running QR on the row-reversed transpose and undoing the reversal.
func rq(a mat.Matrix) (*mat.Dense, *mat.Dense) {
	flipped := flipRows(a)

	var qr mat.QR
	qr.Factorize(flipped.T())
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	upper := flipCols(flipRows(r.T()))
	orth := flipRows(q.T())
	return upper, orth
}

func flipRows(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(rows-1-i, j, m.At(i, j))
		}
	}
	return out
}

func flipCols(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, cols-1-j, m.At(i, j))
		}
	}
	return out
}
