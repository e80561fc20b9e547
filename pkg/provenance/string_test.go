package provenance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConcatMergesRefs(t *testing.T) {
	a := Of("/store/aaa-foo/bin", "aaa")
	b := Plain(":")
	c := Of("/store/bbb-bar/bin", "bbb", "aaa")
	got := Concat(a, b, c)
	if got.Value != "/store/aaa-foo/bin:/store/bbb-bar/bin" {
		t.Fatalf("value = %q", got.Value)
	}
	if diff := cmp.Diff([]string{"aaa", "bbb"}, got.Refs()); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinAndZeroValue(t *testing.T) {
	var zero String
	if zero.Value != "" || len(zero.Refs()) != 0 {
		t.Fatal("zero String should be empty")
	}
	got := Join([]String{Of("x", "r1"), Plain("y")}, " ")
	if got.String() != "x y" || got.Len() != 3 {
		t.Fatalf("Join = %q", got)
	}
	if diff := cmp.Diff([]string{"r1"}, got.Refs()); diff != "" {
		t.Fatal(diff)
	}
	if len(Of("x", "").Refs()) != 0 {
		t.Fatal("empty refs must be ignored")
	}
}

func TestWithValueDoesNotAlias(t *testing.T) {
	s := Of("a", "r1")
	t2 := s.WithValue("b")
	t2.addRef("r2")
	if len(s.Refs()) != 1 {
		t.Fatalf("original refs changed: %v", s.Refs())
	}
}
