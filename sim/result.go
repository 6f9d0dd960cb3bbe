package sim

// Point is one sample of a miss ratio curve.
type Point struct {
	Capacity  float64 `json:"capacity"`   // reported cache size, in bytes
	MissRatio float64 `json:"miss_ratio"` // in [0, 1]
}

// SimulationResult is the miss ratio curve of one eviction policy.
// Points are in strictly increasing capacity order.
type SimulationResult struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// MinMissRatio returns the lowest miss ratio on the curve, or 1 for an empty curve.
func (r *SimulationResult) MinMissRatio() float64 {
	best := 1.0
	for _, p := range r.Points {
		best = min(best, p.MissRatio)
	}
	return best
}

// MinCapacity returns the smallest reported capacity whose miss ratio is at
// most target. The boolean is false when no point on the curve reaches it.
func (r *SimulationResult) MinCapacity(target float64) (float64, bool) {
	for _, p := range r.Points {
		if p.MissRatio <= target {
			return p.Capacity, true
		}
	}
	return 0, false
}
