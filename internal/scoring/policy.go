package scoring

import (
	"fmt"
	"math"
	"sort"
)

// DegradedComponentCap bounds the CV-derived components when no CV text was
// available.
const DegradedComponentCap = 20.0

type Weights struct {
	Experience float64
	Skills     float64
	Education  float64
	Location   float64
}

type Components struct {
	Experience float64
	Skills     float64
	Education  float64
	Location   float64
}

// Policy is a versioned weighting of the component scores. Scores produced
// under different versions are not comparable.
type Policy struct {
	Version   string
	Weights   Weights
	Tolerance float64
}

var registry = map[string]Policy{
	"v1.0": {
		Version:   "v1.0",
		Weights:   Weights{Experience: 0.35, Skills: 0.35, Education: 0.15, Location: 0.15},
		Tolerance: 15,
	},
	"v1.1": {
		Version:   "v1.1",
		Weights:   Weights{Experience: 0.30, Skills: 0.40, Education: 0.15, Location: 0.15},
		Tolerance: 12,
	},
}

func Lookup(version string) (Policy, error) {
	p, ok := registry[version]
	if !ok {
		return Policy{}, fmt.Errorf("unknown scoring algorithm version %q (known: %v)", version, Versions())
	}
	return p, nil
}

func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Baseline is the weighted sum of the components, rounded to two decimals.
func (p Policy) Baseline(c Components) float64 {
	w := p.Weights
	sum := w.Experience + w.Skills + w.Education + w.Location
	if sum <= 0 {
		return 0
	}
	v := (c.Experience*w.Experience + c.Skills*w.Skills + c.Education*w.Education + c.Location*w.Location) / sum
	return round2(v)
}

// Check compares the provider's overall score with the weighted baseline.
// ok is false when the deviation exceeds the policy tolerance.
func (p Policy) Check(overall float64, c Components) (baseline, deviation float64, ok bool) {
	baseline = p.Baseline(c)
	deviation = round2(math.Abs(overall - baseline))
	return baseline, deviation, deviation <= p.Tolerance
}

// CapDegraded limits the CV-derived components. It reports whether anything
// was lowered.
func CapDegraded(c Components) (Components, bool) {
	capped := false
	for _, v := range []*float64{&c.Experience, &c.Skills, &c.Education} {
		if *v > DegradedComponentCap {
			*v = DegradedComponentCap
			capped = true
		}
	}
	return c, capped
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
