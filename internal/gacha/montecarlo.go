package gacha

import (
	"math"
	"sort"
)

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64
	Var    float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// SimulateFrequencies samples trials times and returns the empirical
// frequency of each entry id.
func SimulateFrequencies(s Sampler, trials int) map[string]float64 {
	out := make(map[string]float64)
	if trials <= 0 {
		return out
	}
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[s.Sample().ID]++
	}
	for id, c := range counts {
		out[id] = float64(c) / float64(trials)
	}
	return out
}

// maxDrawsPerTrial caps one trial so an unreachable tier can't spin forever.
const maxDrawsPerTrial = 1_000_000

// RunTierMonteCarlo measures "draws until the first entry of tier >= minTier"
// over many trials. A trial that never reaches minTier records maxDrawsPerTrial.
func RunTierMonteCarlo(s Sampler, minTier Tier, trials int) Stats {
	if trials <= 0 {
		return Stats{}
	}
	samples := make([]int, trials)
	for i := 0; i < trials; i++ {
		draws := 0
		for draws < maxDrawsPerTrial {
			draws++
			if s.Sample().Tier >= minTier {
				break
			}
		}
		samples[i] = draws
	}
	return calcStats(samples)
}
