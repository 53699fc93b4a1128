package projgeom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// NormalizePoints2D conditions a set of image points for linear estimation:
// points are centered on their centroid and scaled by sqrt(2)/sigma, where
// sigma is the population standard deviation of the pooled x and y
// components. It returns the conditioned points together with the 3x3
// similarity T that produced them, so estimates computed in the conditioned
// frame can be mapped back exactly.
//
// Coincident points drive sigma toward zero and the scale toward infinity;
// inputs are not screened for this.
func NormalizePoints2D(pts []r2.Point) ([]r2.Point, *mat.Dense, error) {
	if len(pts) < 2 {
		return nil, nil, errors.Errorf("point conditioning requires at least 2 points, got %d", len(pts))
	}
	xs := make([]float64, 0, len(pts))
	ys := make([]float64, 0, len(pts))
	coords := make([]float64, 0, 2*len(pts))
	for _, pt := range pts {
		xs = append(xs, pt.X)
		ys = append(ys, pt.Y)
		coords = append(coords, pt.X, pt.Y)
	}
	meanX, err := stats.Mean(xs)
	if err != nil {
		return nil, nil, err
	}
	meanY, err := stats.Mean(ys)
	if err != nil {
		return nil, nil, err
	}
	sigma, err := stats.StandardDeviation(coords)
	if err != nil {
		return nil, nil, err
	}
	scale := math.Sqrt2 / sigma

	t := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * meanX,
		0, scale, -scale * meanY,
		0, 0, 1,
	})
	out := make([]r2.Point, len(pts))
	for i, pt := range pts {
		out[i] = r2.Point{X: scale * (pt.X - meanX), Y: scale * (pt.Y - meanY)}
	}
	return out, t, nil
}

// NormalizePoints3D is the 3D analog of NormalizePoints2D for homogeneous
// scene points: the x, y and z components are centered and scaled by
// sqrt(2)/sigma with sigma the population standard deviation of the pooled
// components, and the returned 4x4 similarity T reproduces the conditioned
// points as T times the inputs. Scale components pass through unchanged.
func NormalizePoints3D(pts []mgl64.Vec4) ([]mgl64.Vec4, *mat.Dense, error) {
	if len(pts) < 2 {
		return nil, nil, errors.Errorf("point conditioning requires at least 2 points, got %d", len(pts))
	}
	xs := make([]float64, 0, len(pts))
	ys := make([]float64, 0, len(pts))
	zs := make([]float64, 0, len(pts))
	coords := make([]float64, 0, 3*len(pts))
	for _, pt := range pts {
		xs = append(xs, pt.X())
		ys = append(ys, pt.Y())
		zs = append(zs, pt.Z())
		coords = append(coords, pt.X(), pt.Y(), pt.Z())
	}
	meanX, err := stats.Mean(xs)
	if err != nil {
		return nil, nil, err
	}
	meanY, err := stats.Mean(ys)
	if err != nil {
		return nil, nil, err
	}
	meanZ, err := stats.Mean(zs)
	if err != nil {
		return nil, nil, err
	}
	sigma, err := stats.StandardDeviation(coords)
	if err != nil {
		return nil, nil, err
	}
	scale := math.Sqrt2 / sigma

	t := mat.NewDense(4, 4, []float64{
		scale, 0, 0, -scale * meanX,
		0, scale, 0, -scale * meanY,
		0, 0, scale, -scale * meanZ,
		0, 0, 0, 1,
	})
	out := make([]mgl64.Vec4, len(pts))
	for i, pt := range pts {
		out[i] = mgl64.Vec4{
			scale * (pt.X() - meanX*pt.W()),
			scale * (pt.Y() - meanY*pt.W()),
			scale * (pt.Z() - meanZ*pt.W()),
			pt.W(),
		}
	}
	return out, t, nil
}
