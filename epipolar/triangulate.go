package epipolar

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
	"sfm/projgeom"
)

// Triangulate lifts matched image points seen by two cameras to homogeneous
// scene points with the linear two-view method: for each correspondence the
// constraint blocks hat(x1)*P1 and hat(x2)*P2 are stacked into a 6x4 system
// whose right null vector is the point, rescaled to unit homogeneous
// coordinate. Points are returned as the columns of a 4xN matrix.
func Triangulate(cam1, cam2 *camera.Camera, pts1, pts2 []r2.Point) (*mat.Dense, error) {
	if len(pts1) != len(pts2) {
		return nil, errors.Errorf("correspondence sets must have the same length, got %d and %d", len(pts1), len(pts2))
	}
	if len(pts1) == 0 {
		return nil, errors.New("no correspondences to triangulate")
	}
	h1 := projgeom.Homogenize(pts1)
	h2 := projgeom.Homogenize(pts2)

	out := mat.NewDense(4, len(pts1), nil)
	for i := range h1 {
		var c1, c2, a mat.Dense
		c1.Mul(projgeom.Hat(h1[i]), cam1.ProjMat)
		c2.Mul(projgeom.Hat(h2[i]), cam2.ProjMat)
		a.Stack(&c1, &c2)

		point, err := projgeom.Nullspace(&a)
		if err != nil {
			return nil, errors.Wrapf(err, "triangulating correspondence %d", i)
		}
		for k := 0; k < 4; k++ {
			out.Set(k, i, point.AtVec(k))
		}
	}
	projgeom.NormalizeHomogeneousCols(out)
	return out, nil
}

// ReprojectionError sums the squared Euclidean distances between the
// observed image points of both views and the projections of the given
// homogeneous scene points, one point per column of points3d.
func ReprojectionError(points3d mat.Matrix, cam1, cam2 *camera.Camera, pts1, pts2 []r2.Point) (float64, error) {
	_, n := points3d.Dims()
	if len(pts1) != n || len(pts2) != n {
		return 0, errors.Errorf("expected %d observations per view, got %d and %d", n, len(pts1), len(pts2))
	}
	proj1, err := cam1.Project(points3d)
	if err != nil {
		return 0, err
	}
	proj2, err := cam2.Project(points3d)
	if err != nil {
		return 0, err
	}
	obs1, err := projgeom.DehomogenizeCols(proj1)
	if err != nil {
		return 0, err
	}
	obs2, err := projgeom.DehomogenizeCols(proj2)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for i := range obs1 {
		d1 := obs1[i].Sub(pts1[i])
		d2 := obs2[i].Sub(pts2[i])
		total += d1.X*d1.X + d1.Y*d1.Y + d2.X*d2.X + d2.Y*d2.Y
	}
	return total, nil
}
