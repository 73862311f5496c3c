// Package scoring maps biomechanical metric values onto target bands and
// aggregates them into a 0-100 composite swing score.
package scoring

import (
	"math"
	"sort"
)

const (
	maxScoreValue = 100
	weakestCount  = 2
)

// MetricSpec describes the ideal band for one metric.
type MetricSpec struct {
	Name      string     `json:"metric_name"`
	Target    [2]float64 `json:"target"` // lo, hi
	Weight    float64    `json:"weight"`
	Invert    bool       `json:"invert,omitempty"`
	AbsWindow bool       `json:"abs_window,omitempty"`
}

// Lo returns the lower band edge.
func (m MetricSpec) Lo() float64 { return m.Target[0] }

// Hi returns the upper band edge.
func (m MetricSpec) Hi() float64 { return m.Target[1] }

// Rubric is an ordered set of metric specs. Order breaks ties when ranking
// the weakest metrics.
type Rubric []MetricSpec

// Lookup returns the spec for name.
func (r Rubric) Lookup(name string) (MetricSpec, bool) {
	for _, m := range r {
		if m.Name == name {
			return m, true
		}
	}
	return MetricSpec{}, false
}

// Contribution is one metric's share of a composite score.
type Contribution struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Result is a composite score with its breakdown.
type Result struct {
	Score         int            `json:"score"`
	Weakest       []string       `json:"weakest"`
	Contributions []Contribution `json:"contributions"`
}

// Normalize maps raw onto [0,1] against spec. Values inside the band score 1
// and decay linearly to 0 over one band width on either side. A degenerate
// band (hi <= lo) is a point target.
func Normalize(raw float64, spec MetricSpec) float64 {
	lo, hi := spec.Lo(), spec.Hi()
	v := raw
	if spec.AbsWindow {
		switch {
		case raw < lo:
			v = lo - (lo - raw)
		case raw > hi:
			v = hi + (raw - hi)
		}
	}

	var x float64
	switch width := hi - lo; {
	case width <= 0:
		if v == lo {
			x = 1
		}
	case v < lo:
		x = math.Max(0, 1-(lo-v)/width)
	case v > hi:
		x = math.Max(0, 1-(v-hi)/width)
	default:
		x = 1
	}

	if spec.Invert {
		x = 1 - x
	}
	return x
}

// Score normalises every rubric metric present in values and aggregates them.
// Missing and NaN values are skipped. A rubric with no usable weight scores 0.
func Score(values map[string]float64, rubric Rubric) Result {
	res := Result{Weakest: []string{}, Contributions: []Contribution{}}
	var sum, weights float64
	for _, spec := range rubric {
		raw, ok := values[spec.Name]
		if !ok || math.IsNaN(raw) {
			continue
		}
		x := Normalize(raw, spec)
		res.Contributions = append(res.Contributions, Contribution{Metric: spec.Name, Score: x, Weight: spec.Weight})
		sum += x * spec.Weight
		weights += spec.Weight
	}

	if weights != 0 {
		composite := math.Round(maxScoreValue * sum / weights)
		res.Score = int(math.Max(0, math.Min(maxScoreValue, composite)))
	}

	ranked := make([]Contribution, len(res.Contributions))
	copy(ranked, res.Contributions)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	for i := 0; i < len(ranked) && i < weakestCount; i++ {
		res.Weakest = append(res.Weakest, ranked[i].Metric)
	}
	return res
}
