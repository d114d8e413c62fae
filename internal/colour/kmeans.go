package colour

import (
	"math"
)

// DefaultMaxIterations bounds the number of Lloyd iterations run by Cluster.
const DefaultMaxIterations = 10

// KMeansClusterer reduces colour samples to k representative centroids.
//
// Centroids are seeded with the first k samples rather than k-means++ so the
// same samples always produce the same dominant colours.
type KMeansClusterer struct {
	MaxIterations int
}

// NewKMeansClusterer creates a KMeansClusterer with default settings.
func NewKMeansClusterer() *KMeansClusterer {
	return &KMeansClusterer{
		MaxIterations: DefaultMaxIterations,
	}
}

// Cluster runs the default clusterer over colours.
func Cluster(colours []RGB, k int) []RGB {
	return NewKMeansClusterer().Cluster(colours, k)
}

// Cluster returns at most k centroid colours in centroid index order.
// When there are no more than k samples they are returned unchanged.
func (c *KMeansClusterer) Cluster(colours []RGB, k int) []RGB {
	if len(colours) <= k {
		return colours
	}
	if k <= 0 {
		return nil
	}

	maxIterations := c.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	centroids := make([]RGB, k)
	copy(centroids, colours[:k])

	sums := make([]point3D, k)
	counts := make([]int, k)

	for iter := 0; iter < maxIterations; iter++ {
		clear(sums)
		clear(counts)

		for _, col := range colours {
			nearest := findNearestCentroid(col, centroids)
			sums[nearest].R += float64(col.R)
			sums[nearest].G += float64(col.G)
			sums[nearest].B += float64(col.B)
			counts[nearest]++
		}

		changed := false
		for i := range centroids {
			if counts[i] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			n := float64(counts[i])
			next := RGB{
				R: uint8(math.Round(sums[i].R / n)),
				G: uint8(math.Round(sums[i].G / n)),
				B: uint8(math.Round(sums[i].B / n)),
			}
			if next != centroids[i] {
				centroids[i] = next
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return centroids
}

// point3D accumulates channel sums in RGB space.
type point3D struct {
	R, G, B float64
}

// distanceSq is the squared Euclidean distance between two colours in RGB space.
func distanceSq(a, b RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// findNearestCentroid returns the index of the nearest centroid.
// Ties go to the lowest index.
func findNearestCentroid(col RGB, centroids []RGB) int {
	nearest := 0
	minDist := math.MaxInt

	for i, centroid := range centroids {
		if d := distanceSq(col, centroid); d < minDist {
			minDist = d
			nearest = i
		}
	}

	return nearest
}
