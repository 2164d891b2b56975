package exam

import (
	"math"
	"testing"
)

func TestAllocateMarks(t *testing.T) {
	cases := []struct {
		n          int
		base       float64
		adjustment float64
	}{
		{1, 100, 0},
		{2, 50, 0},
		{3, 33.3, 0.1},
		{4, 25, 0},
		{6, 16.7, -0.2},
		{7, 14.3, -0.1},
		{8, 12.5, 0},
		{10, 10, 0},
		{12, 8.3, 0.4},
	}
	for _, tc := range cases {
		got := AllocateMarks(tc.n)
		if got.BaseMarks != tc.base {
			t.Fatalf("n=%d: base = %v, want %v", tc.n, got.BaseMarks, tc.base)
		}
		if got.Adjustment != tc.adjustment {
			t.Fatalf("n=%d: adjustment = %v, want %v", tc.n, got.Adjustment, tc.adjustment)
		}
		if got.TotalQuestions != tc.n {
			t.Fatalf("n=%d: total questions = %d", tc.n, got.TotalQuestions)
		}
	}
}

func TestAllocateMarksSumsToHundred(t *testing.T) {
	// Whatever the rounding does per question, the applied exam always totals
	// exactly 100.
	for n := 1; n <= 50; n++ {
		alloc := AllocateMarks(n)
		qs := make([]Question, n)
		alloc.Apply(qs)

		sum := 0.0
		for _, q := range qs {
			sum += q.Marks
		}
		if math.Abs(sum-100) > 0.05 {
			t.Fatalf("n=%d: sum = %v, want 100 (base=%v adj=%v)", n, sum, alloc.BaseMarks, alloc.Adjustment)
		}
	}
}

func TestAllocateMarksNonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if got := AllocateMarks(n); got != (MarkAllocation{}) {
			t.Fatalf("n=%d: got %+v, want zeros", n, got)
		}
	}
}

func TestMarkAllocationApply(t *testing.T) {
	qs := []Question{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	AllocateMarks(3).Apply(qs)
	if qs[0].Marks != 33.3 || qs[1].Marks != 33.3 {
		t.Fatalf("base marks = %v, %v, want 33.3", qs[0].Marks, qs[1].Marks)
	}
	if qs[2].Marks != 33.4 {
		t.Fatalf("last question marks = %v, want 33.4", qs[2].Marks)
	}
}
