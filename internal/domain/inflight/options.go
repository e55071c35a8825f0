package inflight

// Option applies a configuration option to the guard.
type Option func(*slotGuard)

// WithSlots sets how many ids may hold the guard at once. Values below 1 are ignored.
func WithSlots(n int) Option {
	return func(g *slotGuard) {
		if n > 0 {
			g.slots = n
		}
	}
}
