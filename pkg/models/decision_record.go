package models

import "time"

// DecisionRecord is one row of the audit journal: the outcome of one axis in
// one run. The decision engine never reads these back.
type DecisionRecord struct {
	ID          int           `json:"id"`
	RunID       string        `json:"run_id"`
	ResourceID  string        `json:"resource_id"`
	Axis        Axis          `json:"axis"`
	Timestamp   time.Time     `json:"timestamp"`
	Action      ScalingAction `json:"action"`
	Peak        *float64      `json:"peak,omitempty"`
	PreviousMin *int          `json:"previous_min,omitempty"`
	PreviousMax *int          `json:"previous_max,omitempty"`
	TargetValue *int          `json:"target_value,omitempty"`
	NewMin      *int          `json:"new_min,omitempty"`
	NewMax      *int          `json:"new_max,omitempty"`
	Applied     bool          `json:"applied"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewDecisionRecords flattens a run result into one record per axis
func NewDecisionRecords(result *RunResult) []*DecisionRecord {
	records := make([]*DecisionRecord, 0, len(result.Axes))

	for _, axis := range Axes() {
		outcome, ok := result.Axes[axis]
		if !ok {
			continue
		}

		record := &DecisionRecord{
			RunID:      result.RunID,
			ResourceID: result.ResourceID,
			Axis:       axis,
			Timestamp:  result.FinishedAt,
			Action:     ActionUndefined,
			Applied:    outcome.Applied,
			ErrorKind:  outcome.ErrorKind,
			Error:      outcome.Error,
		}

		if outcome.Bounds != nil {
			record.PreviousMin = intPtr(outcome.Bounds.Min)
			record.PreviousMax = intPtr(outcome.Bounds.Max)
		}
		if d := outcome.Decision; d != nil {
			record.Action = d.Action
			peak := d.Peak
			record.Peak = &peak
			record.TargetValue = intPtr(d.TargetValue)
		}
		if outcome.AppliedBounds != nil {
			record.NewMin = intPtr(outcome.AppliedBounds.Min)
			record.NewMax = intPtr(outcome.AppliedBounds.Max)
		}

		records = append(records, record)
	}

	return records
}

func intPtr(v int) *int {
	return &v
}
