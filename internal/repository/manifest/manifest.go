package manifest

import (
	"strconv"

	"github.com/kailas-cloud/datasplit/internal/domain/classindex"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// Row describes one assigned annotation file.
type Row struct {
	File    string   `parquet:"file" yaml:"file"`
	Image   string   `parquet:"image" yaml:"image"`
	Split   string   `parquet:"split,dict" yaml:"split"`
	Classes []string `parquet:"classes,list" yaml:"classes"`
}

// Meta holds the parameters that reproduce a manifest.
type Meta struct {
	Seed   int64   `yaml:"seed"`
	Policy string  `yaml:"policy"`
	Train  float64 `yaml:"train"`
	Val    float64 `yaml:"val"`
	Test   float64 `yaml:"test"`
}

// Manifest is the full assignment of a run.
type Manifest struct {
	Meta `yaml:",inline"`
	Rows []Row `yaml:"files"`
}

// ImageNamer maps an annotation file name to its image file name.
type ImageNamer interface {
	ImageName(label string) string
}

// Build lists every assigned file in split order, keeping merge order within a split.
// Classes of a file are sorted.
func Build(a *domsplit.Assignment, idx *classindex.Index, images ImageNamer, meta Meta) Manifest {
	byFile := make(map[string][]string, a.Len())
	for _, cls := range idx.Classes() {
		for _, f := range idx.Files(cls) {
			byFile[f] = append(byFile[f], cls)
		}
	}

	rows := make([]Row, 0, a.Len())
	for _, sp := range domsplit.Order() {
		for _, f := range a.Files(sp) {
			rows = append(rows, Row{
				File:    f,
				Image:   images.ImageName(f),
				Split:   string(sp),
				Classes: byFile[f],
			})
		}
	}
	return Manifest{Meta: meta, Rows: rows}
}

// keyValues returns meta as string pairs for file-level metadata.
func (m Meta) keyValues() [][2]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return [][2]string{
		{"datasplit.seed", strconv.FormatInt(m.Seed, 10)},
		{"datasplit.policy", m.Policy},
		{"datasplit.train", f(m.Train)},
		{"datasplit.val", f(m.Val)},
		{"datasplit.test", f(m.Test)},
	}
}
