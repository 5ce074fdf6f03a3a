package cc

import "math"

// PlacementModel is the node-placement/mobility external collaborator
// named in spec.md §1. It supplies the positions Driver hands to
// PropagationModel; Cottoncandy does not support mobility mid-run, only
// placement at construction time (spec.md Non-goals).
type PlacementModel interface {
	// Place returns n positions for the non-gateway nodes. The gateway is
	// always placed separately at the origin.
	Place(n int, rng *Rand) []Position
}

// GridPlacement places nodes on a square grid of spacing Delta meters,
// centered on the gateway at the origin, filled in row-major order.
type GridPlacement struct {
	Delta float64
}

func (g GridPlacement) Place(n int, rng *Rand) []Position {
	if n <= 0 {
		return nil
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))
	out := make([]Position, 0, n)
	half := float64(side-1) / 2.0
	for i := 0; i < n; i++ {
		row := i / side
		col := i % side
		out = append(out, Position{
			X: (float64(col) - half) * g.Delta,
			Y: (float64(row) - half) * g.Delta,
		})
	}
	return out
}

// DiskPlacement places nodes uniformly at random within a disk of the
// given radius, sampled by the standard inverse-CDF method so the
// distribution is uniform over area rather than biased toward the center.
type DiskPlacement struct {
	Radius float64
}

func (d DiskPlacement) Place(n int, rng *Rand) []Position {
	if n <= 0 {
		return nil
	}
	out := make([]Position, 0, n)
	for i := 0; i < n; i++ {
		u1 := rng.Float64()
		u2 := rng.Float64()
		r := d.Radius * math.Sqrt(u1)
		theta := 2 * math.Pi * u2
		out = append(out, Position{
			X: r * math.Cos(theta),
			Y: r * math.Sin(theta),
		})
	}
	return out
}
