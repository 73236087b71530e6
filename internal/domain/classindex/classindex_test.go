package classindex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAdd_FileOncePerClass(t *testing.T) {
	idx := New()
	idx.Add("a.txt", []string{"0", "1"})
	idx.Add("a.txt", []string{"0"})
	idx.Add("b.txt", []string{"1"})

	if diff := cmp.Diff([]string{"a.txt"}, idx.Files("0")); diff != "" {
		t.Errorf("class 0 files mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, idx.Files("1")); diff != "" {
		t.Errorf("class 1 files mismatch (-want +got):\n%s", diff)
	}
	if idx.Len() != 2 {
		t.Errorf("expected 2 classes, got %d", idx.Len())
	}
}

func TestAdd_NoClassesIgnored(t *testing.T) {
	idx := New()
	idx.Add("empty.txt", nil)
	if idx.Contains("empty.txt") {
		t.Error("file with no classes must not be indexed")
	}
	if len(idx.Universe()) != 0 {
		t.Errorf("expected empty universe, got %v", idx.Universe())
	}
}

func TestClasses_Sorted(t *testing.T) {
	idx := New()
	idx.Add("a.txt", []string{"2"})
	idx.Add("b.txt", []string{"10"})
	idx.Add("c.txt", []string{"0"})

	want := []string{"0", "10", "2"}
	if diff := cmp.Diff(want, idx.Classes()); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
}

func TestUniverse_FirstSeenOrder(t *testing.T) {
	idx := New()
	idx.Add("b.txt", []string{"1", "0"})
	idx.Add("a.txt", []string{"0"})
	idx.Add("c.txt", []string{"1"})

	want := []string{"b.txt", "a.txt", "c.txt"}
	if diff := cmp.Diff(want, idx.Universe()); diff != "" {
		t.Errorf("universe mismatch (-want +got):\n%s", diff)
	}
}

func TestFiles_ReturnsCopy(t *testing.T) {
	idx := New()
	idx.Add("a.txt", []string{"0"})
	idx.Add("b.txt", []string{"0"})

	files := idx.Files("0")
	files[0] = "mutated.txt"

	if got := idx.Files("0")[0]; got != "a.txt" {
		t.Errorf("index mutated through returned slice: %q", got)
	}
	if got := idx.Files("unknown"); len(got) != 0 {
		t.Errorf("unknown class: expected empty, got %v", got)
	}
}
