package montecarlo

import (
	"github.com/montanaflynn/stats"
)

// Summary holds the aggregate statistics for one discount spec's SCC
// estimates over the non-dropped trials.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// Summarize computes summary statistics over SCC estimates. An empty
// input yields a zero-count summary rather than an error: a batch where
// every trial dropped is a legal, if unhappy, outcome.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	data := stats.Float64Data(values)

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	p5, _ := stats.Percentile(data, 5)
	p25, _ := stats.Percentile(data, 25)
	p75, _ := stats.Percentile(data, 75)
	p95, _ := stats.Percentile(data, 95)

	// Sample standard deviation; a single trial has none.
	sd := 0.0
	if len(values) > 1 {
		sd, _ = stats.StandardDeviationSample(data)
	}

	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: sd,
		P5:     p5,
		P25:    p25,
		Median: median,
		P75:    p75,
		P95:    p95,
	}
}
