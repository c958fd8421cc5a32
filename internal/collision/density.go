package collision

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Point is a position in simulation coordinates (metres).
type Point struct {
	X, Y float64
}

// DensityGrid is a density surface sampled on a regular grid.
// Z[j][i] is the density at (XS[i], YS[j]).
type DensityGrid struct {
	XS, YS []float64
	Z      [][]float64
	// Bandwidth is the kernel standard deviation along each axis.
	Bandwidth [2]float64
}

// Max returns the largest density value on the grid.
func (g *DensityGrid) Max() float64 {
	m := 0.0
	for _, row := range g.Z {
		if len(row) > 0 {
			m = math.Max(m, floats.Max(row))
		}
	}
	return m
}

// DensityEstimator fits a density surface to scattered points.
type DensityEstimator interface {
	Estimate(points []Point) (*DensityGrid, error)
}

// ErrTooFewPoints is returned when fewer than two points are given; a
// density over fewer than two points is undefined.
var ErrTooFewPoints = errors.New("density estimation needs at least two points")

// Defaults for GaussianKDE.
const (
	DefaultDensityGrid = 100
	DefaultDensityCut  = 3.0
	// minKernelVariance bounds the fallback kernel, in square metres.
	minKernelVariance = 1.0
	maxKernelCond     = 1e12
)

// GaussianKDE is a 2-D Gaussian kernel density estimator using Scott's rule
// on the full sample covariance. The grid extends Cut bandwidths beyond the
// data on every side.
type GaussianKDE struct {
	GridSize int
	Cut      float64
}

// Estimate evaluates the density on a GridSize x GridSize grid. When the
// sample covariance is singular or badly conditioned (all alerts on one lane
// line, or repeated positions) a diagonal kernel with a variance floor is
// used instead.
func (k GaussianKDE) Estimate(points []Point) (*DensityGrid, error) {
	n := len(points)
	if n < 2 {
		return nil, ErrTooFewPoints
	}
	size := k.GridSize
	if size < 2 {
		size = DefaultDensityGrid
	}

	data := mat.NewDense(n, 2, nil)
	for i, p := range points {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	// Scott's factor for two dimensions: n^(-1/(d+4)).
	factor := math.Pow(float64(n), -1.0/6.0)
	kernel := mat.NewSymDense(2, nil)
	kernel.ScaleSym(factor*factor, &cov)

	var chol mat.Cholesky
	if ok := chol.Factorize(kernel); !ok || chol.Cond() > maxKernelCond {
		kernel = mat.NewSymDense(2, []float64{
			math.Max(kernel.At(0, 0), minKernelVariance), 0,
			0, math.Max(kernel.At(1, 1), minKernelVariance),
		})
		if ok := chol.Factorize(kernel); !ok {
			return nil, fmt.Errorf("kernel covariance is not positive definite")
		}
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("failed to invert kernel covariance: %w", err)
	}
	norm := 1 / (2 * math.Pi * math.Sqrt(chol.Det()) * float64(n))

	sx, sy := math.Sqrt(kernel.At(0, 0)), math.Sqrt(kernel.At(1, 1))
	xs := mat.Col(nil, 0, data)
	ys := mat.Col(nil, 1, data)

	g := &DensityGrid{
		XS:        floats.Span(make([]float64, size), floats.Min(xs)-k.cut()*sx, floats.Max(xs)+k.cut()*sx),
		YS:        floats.Span(make([]float64, size), floats.Min(ys)-k.cut()*sy, floats.Max(ys)+k.cut()*sy),
		Z:         make([][]float64, size),
		Bandwidth: [2]float64{sx, sy},
	}

	a, b, c := inv.At(0, 0), inv.At(0, 1), inv.At(1, 1)
	for j, gy := range g.YS {
		row := make([]float64, size)
		for i, gx := range g.XS {
			sum := 0.0
			for _, p := range points {
				dx, dy := gx-p.X, gy-p.Y
				sum += math.Exp(-0.5 * (a*dx*dx + 2*b*dx*dy + c*dy*dy))
			}
			row[i] = sum * norm
		}
		g.Z[j] = row
	}
	return g, nil
}

func (k GaussianKDE) cut() float64 {
	if k.Cut <= 0 {
		return DefaultDensityCut
	}
	return k.Cut
}

// AlertMap locates alert emissions. Density is nil unless more than one
// alert position was available.
type AlertMap struct {
	Points  []Point
	Density *DensityGrid
}

// BuildAlertMap collects the positions of alerting rows and, when there are
// at least two, asks est for a density surface. With zero or one position the
// estimator is never called and the raw points are the result.
func BuildAlertMap(records []Record, est DensityEstimator) (AlertMap, error) {
	var m AlertMap
	for _, r := range records {
		if !r.IsAlert() || math.IsNaN(r.PositionX) || math.IsNaN(r.PositionY) {
			continue
		}
		m.Points = append(m.Points, Point{X: r.PositionX, Y: r.PositionY})
	}

	if len(m.Points) <= 1 || est == nil {
		return m, nil
	}

	grid, err := est.Estimate(m.Points)
	if err != nil {
		return m, fmt.Errorf("failed to estimate alert density: %w", err)
	}
	m.Density = grid
	return m, nil
}
