package iterseq

import (
	"reflect"
	"testing"
)

func TestRangeSequenceInclusive(t *testing.T) {
	cases := []struct {
		name           string
		start, end, st int
		want           []int
	}{
		{"simple", 1, 5, 1, []int{1, 2, 3, 4, 5}},
		{"step2", 0, 10, 2, []int{0, 2, 4, 6, 8, 10}},
		{"single", 3, 3, 1, []int{3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRange(tc.start, tc.end, tc.st)
			got := r.ToVector()
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ToVector() = %v, want %v", got, tc.want)
			}
			if r.Size() != len(tc.want) {
				t.Errorf("Size() = %d, want %d", r.Size(), len(tc.want))
			}
		})
	}
}

func TestRangeSequenceReduceLeft(t *testing.T) {
	r := NewRange(1, 100, 1)
	sum := func(a, b int) int { return a + b }
	got := r.ReduceLeft(sum)
	if len(got) != 1 || got[0] != 5050 {
		t.Errorf("ReduceLeft sum 1..100 = %v, want [5050]", got)
	}
}

func TestReduceLeftEmptyAndSingle(t *testing.T) {
	empty := NewVector[int](nil)
	if got := empty.ReduceLeft(func(a, b int) int { return a + b }); got != nil {
		t.Errorf("empty ReduceLeft = %v, want nil", got)
	}
	single := NewVector([]int{7})
	got := single.ReduceLeft(func(a, b int) int { return a + b })
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("single ReduceLeft = %v, want [7]", got)
	}
}

func TestVectorSequence(t *testing.T) {
	v := NewVector([]string{"a", "b", "c"})
	if v.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", v.Size())
	}
	if v.At(1) != "b" {
		t.Errorf("At(1) = %q, want %q", v.At(1), "b")
	}
	cp := v.ToVector()
	cp[0] = "z"
	if v.At(0) != "a" {
		t.Errorf("ToVector copy mutation leaked into source sequence")
	}
}
