package tuning

import (
	"math"
	"math/rand"

	"github.com/okian/gridiron/internal/domain/model"
)

// Range is a closed sampling interval.
type Range struct {
	Min float64 `koanf:"min" json:"min"`
	Max float64 `koanf:"max" json:"max"`
}

func (r Range) sample(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func (r Range) valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Max >= r.Min
}

// Space is the hyperparameter search space.
type Space struct {
	K      Range `koanf:"k" json:"k"`
	Home   Range `koanf:"home" json:"home"`
	PAdd   Range `koanf:"p_add" json:"p_add"`
	PExp   Range `koanf:"p_exp" json:"p_exp"`
	DBase  Range `koanf:"d_base" json:"d_base"`
	DSlope Range `koanf:"d_slope" json:"d_slope"`
}

// DefaultSpace is the search space used when none is configured.
func DefaultSpace() Space {
	return Space{
		K:      Range{10, 40},
		Home:   Range{20, 80},
		PAdd:   Range{0, 2},
		PExp:   Range{0.5, 1.5},
		DBase:  Range{400, 1200},
		DSlope: Range{0, 3},
	}
}

func (s Space) valid() bool {
	for _, r := range [...]Range{s.K, s.Home, s.PAdd, s.PExp, s.DBase, s.DSlope} {
		if !r.valid() {
			return false
		}
	}
	return s.DBase.Min > 0
}

// sample draws one candidate. The draw order is fixed so a seed reproduces a run.
func (s Space) sample(rng *rand.Rand, base model.Params) model.Params {
	p := base
	p.K = s.K.sample(rng)
	p.Home = s.Home.sample(rng)
	p.PAdd = s.PAdd.sample(rng)
	p.PExp = s.PExp.sample(rng)
	p.DBase = s.DBase.sample(rng)
	p.DSlope = s.DSlope.sample(rng)
	return p
}
