// Package reconstruct drives the incremental pipeline: bootstrapping a
// camera pair from a fundamental matrix, robust resection of additional
// views against the track store and projective frame upgrades.
package reconstruct

import (
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"sfm/camera"
	"sfm/projgeom"
	"sfm/track"
)

var (
	// ErrInsufficientCorrespondences is returned by Resect when a view has
	// fewer usable 3D-2D pairs than a minimal camera fit needs.
	ErrInsufficientCorrespondences = errors.New("resection requires at least 6 triangulated tracks observed in the view")
	// ErrInsufficientInliers is returned by Resect when no consensus large
	// enough to refit a camera emerges.
	ErrInsufficientInliers = errors.New("resection consensus has fewer than 6 inliers")
)

const (
	// resectionConfidence is the target probability of having drawn at
	// least one outlier-free sample when the loop stops.
	resectionConfidence = 0.999
	// resectionMaxIterations caps the sampling loop regardless of the
	// adaptive estimate.
	resectionMaxIterations = 1000
)

// resectionInlierThreshold is the squared reprojection distance below which
// a correspondence counts as an inlier, an angular deviation of about 4
// milliradians in normalized coordinates.
var resectionInlierThreshold = 1 - math.Cos(0.004)

// Resect estimates the camera matrix of a view from the tracks that already
// carry scene points, using adaptive RANSAC over minimal 6-point fits: each
// iteration draws 6 correspondences, fits a camera by the direct linear
// transform and scores it against all correspondences, shrinking the
// iteration budget as the best consensus grows. The returned camera is
// refit on the full best consensus. src drives the sampling and makes runs
// reproducible.
func Resect(store *track.Store, view int, src *rand.Rand, logger golog.Logger) (*camera.Camera, error) {
	pts3d, pts2d := store.Correspondences(view)
	n := len(pts3d)
	if n < camera.MinCorrespondences {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "view %d has %d", view, n)
	}

	eps := math.Nextafter(1, 2) - 1
	maxIterations := float64(resectionMaxIterations)
	var bestInliers []int

	for it := 0; float64(it) < maxIterations; it++ {
		sample := src.Perm(n)[:camera.MinCorrespondences]
		candidate, err := fitSubset(pts3d, pts2d, sample)
		if err != nil {
			// a degenerate sample costs an iteration but cannot veto the loop
			continue
		}
		inliers, err := inlierIndices(candidate, pts3d, pts2d)
		if err != nil {
			continue
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}

		// shrink the budget from the best inlier ratio seen so far
		ratio := float64(len(bestInliers)) / float64(n)
		pOutlier := 1 - math.Pow(ratio, camera.MinCorrespondences)
		pOutlier = math.Max(eps, math.Min(1-eps, pOutlier))
		maxIterations = math.Min(maxIterations, math.Log(1-resectionConfidence)/math.Log(pOutlier))
	}

	if len(bestInliers) < camera.MinCorrespondences {
		return nil, errors.Wrapf(ErrInsufficientInliers, "view %d consensus has %d of %d", view, len(bestInliers), n)
	}

	cam, err := fitSubset(pts3d, pts2d, bestInliers)
	if err != nil {
		return nil, errors.Wrapf(err, "refitting view %d on %d inliers", view, len(bestInliers))
	}
	if logger != nil {
		logger.Debugf("resected view %d with %d/%d inliers", view, len(bestInliers), n)
	}
	return cam, nil
}

func fitSubset(pts3d []mgl64.Vec4, pts2d []r2.Point, indices []int) (*camera.Camera, error) {
	sub3d := make([]mgl64.Vec4, len(indices))
	sub2d := make([]r2.Point, len(indices))
	for i, idx := range indices {
		sub3d[i] = pts3d[idx]
		sub2d[i] = pts2d[idx]
	}
	return camera.EstimateMatrix(sub3d, sub2d)
}

// inlierIndices scores a candidate camera against every correspondence by
// squared Euclidean reprojection distance.
func inlierIndices(cam *camera.Camera, pts3d []mgl64.Vec4, pts2d []r2.Point) ([]int, error) {
	proj, err := cam.Project(projgeom.PointMatrix(pts3d))
	if err != nil {
		return nil, err
	}
	projected, err := projgeom.DehomogenizeCols(proj)
	if err != nil {
		return nil, err
	}
	var inliers []int
	for i, pt := range pts2d {
		d := pt.Sub(projected[i])
		if d.X*d.X+d.Y*d.Y < resectionInlierThreshold {
			inliers = append(inliers, i)
		}
	}
	return inliers, nil
}
