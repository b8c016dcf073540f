package fitness

import (
	"gonum.org/v1/gonum/stat"
)

// Summary is a per-generation digest of fitness values.
type Summary struct {
	Count  int     `json:"count"`
	Best   float64 `json:"best"`
	Worst  float64 `json:"worst"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes best/worst under c together with mean and sample
// standard deviation.
func Summarize(values []float64, c Comparator) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	if c == nil {
		c = DirectionComparator{}
	}

	best, worst := values[0], values[0]
	for _, v := range values[1:] {
		if c.Compare(v, best) < 0 {
			best = v
		}
		if c.Compare(v, worst) > 0 {
			worst = v
		}
	}

	out := Summary{
		Count: len(values),
		Best:  best,
		Worst: worst,
	}
	if len(values) == 1 {
		out.Mean = values[0]
		return out
	}
	out.Mean, out.StdDev = stat.MeanStdDev(values, nil)
	return out
}
