package exam

import "math"

// MarkAllocation distributes 100 total marks across a question count. Every
// question gets BaseMarks; exactly one (conventionally the last) additionally
// gets Adjustment, so the exam's total is exactly 100 even though per-question
// marks are rounded to one decimal place.
type MarkAllocation struct {
	BaseMarks      float64 `json:"base_marks"`
	Adjustment     float64 `json:"adjustment"`
	TotalQuestions int     `json:"total_questions"`
}

// AllocateMarks computes the per-question mark value for an exam of n
// questions. n <= 0 yields all zeros.
func AllocateMarks(n int) MarkAllocation {
	if n <= 0 {
		return MarkAllocation{}
	}
	base := round1(100 / float64(n))
	return MarkAllocation{
		BaseMarks:      base,
		Adjustment:     round1(100 - base*float64(n)),
		TotalQuestions: n,
	}
}

// Apply assigns the allocation onto a question list in place: BaseMarks for
// every question, with Adjustment folded into the last one.
func (m MarkAllocation) Apply(qs []Question) {
	for i := range qs {
		qs[i].Marks = m.BaseMarks
	}
	if len(qs) > 0 {
		qs[len(qs)-1].Marks = round1(m.BaseMarks + m.Adjustment)
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
