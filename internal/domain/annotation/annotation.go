package annotation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Default file extensions of a dataset pair.
const (
	DefaultLabelExt = ".txt"
	DefaultImageExt = ".jpg"
)

// maxLineSize bounds a single annotation line (polygon labels can be long).
const maxLineSize = 1 << 20

// ParseClasses returns the distinct leading tokens of all non-blank lines, in first-seen order.
// Fields after the first token are not interpreted.
func ParseClasses(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var classes []string
	seen := make(map[string]struct{})
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cls := fields[0]
		if _, ok := seen[cls]; ok {
			continue
		}
		seen[cls] = struct{}{}
		classes = append(classes, cls)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	return classes, nil
}

// PairName derives the image file name for an annotation file name.
func PairName(label, labelExt, imageExt string) string {
	return strings.TrimSuffix(label, labelExt) + imageExt
}

// HasExt reports whether name carries the annotation extension.
// A file named exactly like the extension (".txt") counts; its pair is ".jpg".
func HasExt(name, labelExt string) bool {
	return strings.HasSuffix(name, labelExt)
}
