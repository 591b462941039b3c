package tracker

import (
	"gonum.org/v1/gonum/stat"
)

// Window is the number of passes averaged by the reward moving average
const Window = 10

// MovingAverage returns the trailing mean of data, where element i of
// the result is the mean of data[max(0, i-window+1) : i+1].
func MovingAverage(data []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	avg := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		avg[i] = stat.Mean(data[start:i+1], nil)
	}
	return avg
}
