package epipolar

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sfm/camera"
)

// EssentialFromFundamental returns the essential matrix E = K2' * F * K1
// for a calibrated camera pair, re-projected onto rank 2 with both nonzero
// singular values forced to 1.
func EssentialFromFundamental(k1, k2, f mat.Matrix) (*mat.Dense, error) {
	if err := validateFundamental(f); err != nil {
		return nil, err
	}
	for _, k := range []mat.Matrix{k1, k2} {
		rows, cols := k.Dims()
		if rows != 3 || cols != 3 {
			return nil, errors.Errorf("intrinsic matrix must be 3x3, got %dx%d", rows, cols)
		}
	}
	var e, tmp mat.Dense
	tmp.Mul(k2.T(), f)
	e.Mul(&tmp, k1)

	var svd mat.SVD
	if ok := svd.Factorize(&e, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize essential matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := mat.NewDense(3, 3, nil)
	s.Set(0, 0, 1)
	s.Set(1, 1, 1)

	e.Mul(&u, s)
	e.Mul(&e, v.T())
	return &e, nil
}

// DecomposeEssential splits an essential matrix into its two candidate
// rotations and the translation direction, the third left singular vector.
func DecomposeEssential(e mat.Matrix) (*mat.Dense, *mat.Dense, r3.Vector, error) {
	var svd mat.SVD
	if ok := svd.Factorize(e, mat.SVDFull); !ok {
		return nil, nil, r3.Vector{}, errors.New("failed to factorize essential matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	if mat.Det(&u) < 0 {
		u.Scale(-1, &u)
	}
	if mat.Det(&v) < 0 {
		v.Scale(-1, &v)
	}
	w := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		-1, 0, 0,
		0, 0, 1,
	})

	var r1, r2 mat.Dense
	r1.Mul(&u, w)
	r1.Mul(&r1, v.T())
	r2.Mul(&u, w.T())
	r2.Mul(&r2, v.T())

	t := r3.Vector{X: u.At(0, 2), Y: u.At(1, 2), Z: u.At(2, 2)}
	return &r1, &r2, t, nil
}

// CandidatePoses returns the four cameras [R|t] consistent with an
// essential matrix, each scaled so its rotation block has positive
// determinant.
func CandidatePoses(e mat.Matrix) ([]*camera.Camera, error) {
	r1, r2, t, err := DecomposeEssential(e)
	if err != nil {
		return nil, err
	}
	tPos := mat.NewDense(3, 1, []float64{t.X, t.Y, t.Z})
	tNeg := mat.NewDense(3, 1, []float64{-t.X, -t.Y, -t.Z})

	pairs := []struct {
		rot   *mat.Dense
		trans *mat.Dense
	}{
		{r1, tPos},
		{r1, tNeg},
		{r2, tPos},
		{r2, tNeg},
	}
	poses := make([]*camera.Camera, 0, len(pairs))
	for _, pair := range pairs {
		var p mat.Dense
		p.Augment(pair.rot, pair.trans)
		adjustPoseSign(&p)
		cam, err := camera.New(&p)
		if err != nil {
			return nil, err
		}
		poses = append(poses, cam)
	}
	return poses, nil
}

// adjustPoseSign flips the whole pose when its rotation block has negative
// determinant.
func adjustPoseSign(pose *mat.Dense) {
	sub := mat.DenseCopyOf(pose.Slice(0, 3, 0, 3))
	if mat.Det(sub) < 0 {
		pose.Scale(-1, pose)
	}
}

// SelectPose picks the candidate that places the most triangulated points
// in front of both cameras, the usual cheirality disambiguation. Candidates
// that fail to triangulate are skipped.
func SelectPose(poses []*camera.Camera, pts1, pts2 []r2.Point) (*camera.Camera, error) {
	if len(poses) == 0 {
		return nil, errors.New("no candidate poses")
	}
	best := poses[0]
	bestCount := -1
	for _, pose := range poses {
		count, err := positiveDepthCount(pose, pts1, pts2)
		if err != nil {
			continue
		}
		if count > bestCount {
			bestCount = count
			best = pose
		}
	}
	return best, nil
}

// positiveDepthCount triangulates the correspondences under [I|0] and pose
// and counts the points with positive depth in both views.
func positiveDepthCount(pose *camera.Camera, pts1, pts2 []r2.Point) (int, error) {
	points, err := Triangulate(camera.NewCanonical(), pose, pts1, pts2)
	if err != nil {
		return 0, err
	}
	rot3 := r3.Vector{X: pose.ProjMat.At(2, 0), Y: pose.ProjMat.At(2, 1), Z: pose.ProjMat.At(2, 2)}
	tz := pose.ProjMat.At(2, 3)

	count := 0
	_, n := points.Dims()
	for j := 0; j < n; j++ {
		pt := r3.Vector{X: points.At(0, j), Y: points.At(1, j), Z: points.At(2, j)}
		if pt.Z > 0 && rot3.Dot(pt)+tz > 0 {
			count++
		}
	}
	return count, nil
}
