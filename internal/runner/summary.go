package runner

import (
	"sort"

	"text2cypher/internal/score"
)

// Histogram counts records per outcome. Histograms built by NewHistogram
// always hold every outcome, zeros included.
type Histogram map[score.Outcome]int

// NewHistogram returns a histogram with every outcome at zero.
func NewHistogram() Histogram {
	histogram := make(Histogram, len(score.Outcomes))
	for _, outcome := range score.Outcomes {
		histogram[outcome] = 0
	}
	return histogram
}

// OutcomeCount is one histogram bucket.
type OutcomeCount struct {
	Outcome score.Outcome
	Count   int
}

// Buckets returns the counts in report order.
func (h Histogram) Buckets() []OutcomeCount {
	buckets := make([]OutcomeCount, 0, len(score.Outcomes))
	for _, outcome := range score.Outcomes {
		buckets = append(buckets, OutcomeCount{Outcome: outcome, Count: h[outcome]})
	}
	return buckets
}

// RunSummary aggregates one evaluation run. It carries no timestamps or
// random ids, so identical inputs produce identical summaries.
type RunSummary struct {
	ConfigID  string         `json:"config_id"`
	PerItem   []score.Record `json:"per_item"`
	Accuracy  float64        `json:"accuracy"`
	Histogram Histogram      `json:"histogram"`
	Total     int            `json:"total"`
	Correct   int            `json:"correct"`
}

// Summarize builds a RunSummary from per-item records.
func Summarize(configID string, records []score.Record) RunSummary {
	perItem := append([]score.Record(nil), records...)
	sort.SliceStable(perItem, func(i, j int) bool {
		return perItem[i].QuestionID < perItem[j].QuestionID
	})
	summary := RunSummary{
		ConfigID:  configID,
		PerItem:   perItem,
		Histogram: NewHistogram(),
		Total:     len(perItem),
	}
	for _, record := range perItem {
		summary.Histogram[record.Outcome]++
		if record.Correct {
			summary.Correct++
		}
	}
	if summary.Total > 0 {
		summary.Accuracy = float64(summary.Correct) / float64(summary.Total)
	}
	return summary
}

// Failures returns records that were not correct, in item order.
func (summary RunSummary) Failures() []score.Record {
	var failures []score.Record
	for _, record := range summary.PerItem {
		if !record.Correct {
			failures = append(failures, record)
		}
	}
	return failures
}

// Record returns the record for a question id.
func (summary RunSummary) Record(questionID string) (score.Record, bool) {
	index := sort.Search(len(summary.PerItem), func(i int) bool {
		return summary.PerItem[i].QuestionID >= questionID
	})
	if index < len(summary.PerItem) && summary.PerItem[index].QuestionID == questionID {
		return summary.PerItem[index], true
	}
	return score.Record{}, false
}
