package models

import "time"

// MetricSample is one aggregated reading for a single sub-period of the window
type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricSeries holds the samples of one metric in the order the source returned them
type MetricSeries struct {
	MetricName string         `json:"metric_name"`
	Samples    []MetricSample `json:"samples"`
}

// TimeWindow is a trailing [Start, End) sampling window
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTrailingWindow(end time.Time, length time.Duration) TimeWindow {
	return TimeWindow{
		Start: end.Add(-length),
		End:   end,
	}
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (s *MetricSeries) Len() int {
	return len(s.Samples)
}

func (s *MetricSeries) IsEmpty() bool {
	return len(s.Samples) == 0
}

// Peak returns the sample with the highest value. When several samples share
// the maximum the first one seen wins; the value is identical either way.
func (s *MetricSeries) Peak() (MetricSample, bool) {
	if len(s.Samples) == 0 {
		return MetricSample{}, false
	}

	peak := s.Samples[0]
	for _, sample := range s.Samples[1:] {
		if sample.Value > peak.Value {
			peak = sample
		}
	}
	return peak, true
}

// Values returns the raw sample values, in arrival order
func (s *MetricSeries) Values() []float64 {
	values := make([]float64, len(s.Samples))
	for i, sample := range s.Samples {
		values[i] = sample.Value
	}
	return values
}

// Latest returns the sample with the most recent timestamp
func (s *MetricSeries) Latest() (MetricSample, bool) {
	if len(s.Samples) == 0 {
		return MetricSample{}, false
	}

	latest := s.Samples[0]
	for _, sample := range s.Samples[1:] {
		if sample.Timestamp.After(latest.Timestamp) {
			latest = sample
		}
	}
	return latest, true
}
