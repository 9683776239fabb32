package zookeeper

import (
	"sort"
	"testing"
)

func TestSequenceOrderingIgnoresProtectedPrefix(t *testing.T) {
	children := []string{
		"_c_ffffffff-lock-0000000003",
		"_c_00000000-lock-0000000010",
		"_c_aaaaaaaa-lock-0000000001",
	}
	sort.Slice(children, func(i, j int) bool { return sequenceOf(children[i]) < sequenceOf(children[j]) })
	want := []string{
		"_c_aaaaaaaa-lock-0000000001",
		"_c_ffffffff-lock-0000000003",
		"_c_00000000-lock-0000000010",
	}
	for i := range want {
		if children[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, children[i], want[i])
		}
	}
}
