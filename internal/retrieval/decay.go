package retrieval

// HopDecay scores a graph neighbor by its hop distance from the nearest seed.
type HopDecay interface {
	Score(hops int) float64
}

// HopDecayFunc adapts a function to HopDecay.
type HopDecayFunc func(hops int) float64

// Score calls f(hops).
func (f HopDecayFunc) Score(hops int) float64 { return f(hops) }

// InverseHop is the default decay, 1/(1+hops): 0.5 for a direct neighbor, 0.33 at two hops.
var InverseHop HopDecay = HopDecayFunc(func(hops int) float64 {
	if hops < 0 {
		hops = 0
	}
	return 1 / float64(1+hops)
})
