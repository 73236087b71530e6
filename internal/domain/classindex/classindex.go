package classindex

import "sort"

// Index maps a class label to the annotation files that mention it.
// A file appears under every class it contains, at most once per class.
type Index struct {
	byClass map[string][]string
	members map[string]map[string]struct{}
	files   []string
	seen    map[string]struct{}
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byClass: make(map[string][]string),
		members: make(map[string]map[string]struct{}),
		seen:    make(map[string]struct{}),
	}
}

// Add registers file under each of classes. Files with no classes are ignored.
func (idx *Index) Add(file string, classes []string) {
	for _, cls := range classes {
		m, ok := idx.members[cls]
		if !ok {
			m = make(map[string]struct{})
			idx.members[cls] = m
		}
		if _, dup := m[file]; dup {
			continue
		}
		m[file] = struct{}{}
		idx.byClass[cls] = append(idx.byClass[cls], file)

		if _, ok := idx.seen[file]; !ok {
			idx.seen[file] = struct{}{}
			idx.files = append(idx.files, file)
		}
	}
}

// Classes returns all class labels in sorted order.
func (idx *Index) Classes() []string {
	out := make([]string, 0, len(idx.byClass))
	for cls := range idx.byClass {
		out = append(out, cls)
	}
	sort.Strings(out)
	return out
}

// Files returns the files of a class in insertion order.
// The returned slice is a copy.
func (idx *Index) Files(class string) []string {
	src := idx.byClass[class]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Len returns the number of classes.
func (idx *Index) Len() int {
	return len(idx.byClass)
}

// Universe returns every indexed file once, in first-seen order.
func (idx *Index) Universe() []string {
	out := make([]string, len(idx.files))
	copy(out, idx.files)
	return out
}

// Contains reports whether file was indexed under at least one class.
func (idx *Index) Contains(file string) bool {
	_, ok := idx.seen[file]
	return ok
}
