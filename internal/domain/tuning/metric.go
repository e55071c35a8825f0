package tuning

import "math"

// Metric names a calibration score. Lower is better for both.
type Metric string

// Supported metrics.
const (
	MetricBrier   Metric = "brier"
	MetricLogLoss Metric = "logloss"
)

const probFloor = 1e-15

// Score evaluates predictions against outcomes (1, 0 or 0.5).
func (m Metric) Score(preds, outcomes []float64) float64 {
	if len(preds) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i, p := range preds {
		o := outcomes[i]
		switch m {
		case MetricLogLoss:
			p = math.Min(math.Max(p, probFloor), 1-probFloor)
			sum -= o*math.Log(p) + (1-o)*math.Log(1-p)
		default:
			sum += (p - o) * (p - o)
		}
	}
	return sum / float64(len(preds))
}
