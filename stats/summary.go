package stats

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/constraints"
)

type Summary struct {
	N      int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Stddev float64
	P99    float64
}

func (s *Summary) String() string {
	return fmt.Sprintf("{n %d min %.2f max %.2f mean %.2f median %.2f sd %.2f p99 %.2f}",
		s.N, s.Min, s.Max, s.Mean, s.Median, s.Stddev, s.P99)
}

func Summarize[T constraints.Integer | constraints.Float](vs []T) (*Summary, error) {
	data := make(stats.Float64Data, len(vs))
	for i, v := range vs {
		data[i] = float64(v)
	}
	s := &Summary{N: len(vs)}
	if len(vs) == 0 {
		return s, nil
	}
	var err error
	if s.Min, err = data.Min(); err != nil {
		return nil, err
	}
	if s.Max, err = data.Max(); err != nil {
		return nil, err
	}
	if s.Mean, err = data.Mean(); err != nil {
		return nil, err
	}
	if s.Median, err = data.Median(); err != nil {
		return nil, err
	}
	if s.Stddev, err = data.StandardDeviation(); err != nil {
		return nil, err
	}
	if s.P99, err = data.Percentile(99); err != nil {
		return nil, err
	}
	return s, nil
}

// Ratio of a's mean to b's mean.
func MeanRatio[T constraints.Integer | constraints.Float](a, b []T) (float64, error) {
	sa, err := Summarize(a)
	if err != nil {
		return 0, err
	}
	sb, err := Summarize(b)
	if err != nil {
		return 0, err
	}
	if sb.Mean == 0 {
		return 0, fmt.Errorf("zero mean")
	}
	return sa.Mean / sb.Mean, nil
}
