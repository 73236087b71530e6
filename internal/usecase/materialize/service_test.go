package materialize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
	"github.com/kailas-cloud/datasplit/internal/repository/dataset"
)

// --- Mocks ---

type mockSource struct {
	existing map[string]bool
	statErr  error
}

func (m *mockSource) LabelPath(name string) string { return "labels/" + name }
func (m *mockSource) ImageName(label string) string {
	return strings.TrimSuffix(label, ".txt") + ".jpg"
}
func (m *mockSource) ImagePath(label string) string { return "images/" + m.ImageName(label) }
func (m *mockSource) Exists(path string) (bool, error) {
	if m.statErr != nil {
		return false, m.statErr
	}
	return m.existing[path], nil
}

type copyCall struct {
	src  string
	sp   domsplit.Name
	kind dataset.Kind
	name string
}

type mockTarget struct {
	layoutErr error
	copyErr   map[string]error
	removeErr error
	layouts   int
	copies    []copyCall
	removed   []string
}

func (m *mockTarget) EnsureLayout(_ context.Context) error {
	m.layouts++
	return m.layoutErr
}

func (m *mockTarget) Copy(_ context.Context, src string, sp domsplit.Name, kind dataset.Kind, name string) error {
	if err := m.copyErr[src]; err != nil {
		return err
	}
	m.copies = append(m.copies, copyCall{src: src, sp: sp, kind: kind, name: name})
	return nil
}

func (m *mockTarget) Remove(_ context.Context, sp domsplit.Name, kind dataset.Kind, name string) error {
	m.removed = append(m.removed, string(sp)+"/"+string(kind)+"/"+name)
	if m.removeErr != nil {
		return m.removeErr
	}
	kept := m.copies[:0]
	for _, c := range m.copies {
		if c.sp != sp || c.kind != kind || c.name != name {
			kept = append(kept, c)
		}
	}
	m.copies = kept
	return nil
}

type mockRecorder struct {
	copied, missing, failed map[domsplit.Name]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		copied:  map[domsplit.Name]int{},
		missing: map[domsplit.Name]int{},
		failed:  map[domsplit.Name]int{},
	}
}

func (m *mockRecorder) PairCopied(sp domsplit.Name)  { m.copied[sp]++ }
func (m *mockRecorder) PairMissing(sp domsplit.Name) { m.missing[sp]++ }
func (m *mockRecorder) PairFailed(sp domsplit.Name)  { m.failed[sp]++ }

func assignment(pairs map[domsplit.Name][]string) *domsplit.Assignment {
	a := domsplit.NewAssignment()
	for _, sp := range domsplit.Order() {
		for _, f := range pairs[sp] {
			a.Add(sp, f)
		}
	}
	return a
}

func completeSource(labels ...string) *mockSource {
	src := &mockSource{existing: map[string]bool{}}
	for _, l := range labels {
		src.existing[src.LabelPath(l)] = true
		src.existing[src.ImagePath(l)] = true
	}
	return src
}

// --- Tests ---

func TestMaterialize_CopiesPairs(t *testing.T) {
	src := completeSource("a.txt", "b.txt", "c.txt")
	dst := &mockTarget{}
	rec := newMockRecorder()
	svc := New(src, dst, nil).WithRecorder(rec)

	a := assignment(map[domsplit.Name][]string{
		domsplit.Train: {"a.txt", "b.txt"},
		domsplit.Test:  {"c.txt"},
	})

	report, err := svc.Materialize(context.Background(), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.layouts != 1 {
		t.Errorf("expected layout created once, got %d", dst.layouts)
	}
	if len(dst.copies) != 6 {
		t.Fatalf("expected 6 copies, got %d", len(dst.copies))
	}
	first := dst.copies[0]
	if first.src != "images/a.jpg" || first.sp != domsplit.Train || first.kind != dataset.Images || first.name != "a.jpg" {
		t.Errorf("unexpected first copy %+v", first)
	}
	second := dst.copies[1]
	if second.src != "labels/a.txt" || second.kind != dataset.Labels || second.name != "a.txt" {
		t.Errorf("unexpected second copy %+v", second)
	}

	if got := report.Splits[domsplit.Train].Copied; got != 2 {
		t.Errorf("train copied = %d, want 2", got)
	}
	if got := report.Total().Copied; got != 3 {
		t.Errorf("total copied = %d, want 3", got)
	}
	if rec.copied[domsplit.Test] != 1 {
		t.Errorf("recorder test copied = %d, want 1", rec.copied[domsplit.Test])
	}
}

func TestMaterialize_MissingImageWarns(t *testing.T) {
	src := completeSource("a.txt", "b.txt")
	delete(src.existing, "images/b.jpg")
	dst := &mockTarget{}

	core, logs := observer.New(zapcore.WarnLevel)
	svc := New(src, dst, zap.New(core))

	a := assignment(map[domsplit.Name][]string{domsplit.Val: {"a.txt", "b.txt"}})
	report, err := svc.Materialize(context.Background(), a)
	if err != nil {
		t.Fatalf("missing pair must not fail the run: %v", err)
	}

	c := report.Splits[domsplit.Val]
	if c.Copied != 1 || c.Missing != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
	for _, call := range dst.copies {
		if call.name == "b.jpg" || call.name == "b.txt" {
			t.Errorf("incomplete pair must not be copied: %+v", call)
		}
	}

	warns := logs.FilterMessage("Pair not found, skipping").All()
	if len(warns) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warns))
	}
	fields := warns[0].ContextMap()
	if fields["image"] != "b.jpg" || fields["label"] != "b.txt" {
		t.Errorf("warning fields %v", fields)
	}
}

func TestMaterialize_MissingLabel(t *testing.T) {
	src := completeSource("a.txt")
	delete(src.existing, "labels/a.txt")
	rec := newMockRecorder()

	report, err := New(src, &mockTarget{}, nil).WithRecorder(rec).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Train: {"a.txt"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Splits[domsplit.Train].Missing != 1 || rec.missing[domsplit.Train] != 1 {
		t.Errorf("expected one missing pair, got %+v", report.Splits[domsplit.Train])
	}
}

func TestMaterialize_CopyFailureContinues(t *testing.T) {
	src := completeSource("a.txt", "b.txt")
	dst := &mockTarget{copyErr: map[string]error{"images/a.jpg": errors.New("disk full")}}
	rec := newMockRecorder()

	report, err := New(src, dst, nil).WithRecorder(rec).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Train: {"a.txt", "b.txt"}}))
	if err != nil {
		t.Fatalf("copy failure must not abort: %v", err)
	}
	c := report.Splits[domsplit.Train]
	if c.Failed != 1 || c.Copied != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
	if rec.failed[domsplit.Train] != 1 {
		t.Errorf("recorder failed = %d, want 1", rec.failed[domsplit.Train])
	}
}

func TestMaterialize_LabelCopyFailureRemovesImage(t *testing.T) {
	src := completeSource("a.txt", "b.txt")
	dst := &mockTarget{copyErr: map[string]error{"labels/a.txt": errors.New("disk full")}}

	report, err := New(src, dst, nil).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Val: {"a.txt", "b.txt"}}))
	if err != nil {
		t.Fatalf("copy failure must not abort: %v", err)
	}
	c := report.Splits[domsplit.Val]
	if c.Failed != 1 || c.Copied != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
	if len(dst.removed) != 1 || dst.removed[0] != "val/images/a.jpg" {
		t.Errorf("expected orphan image removed, got %v", dst.removed)
	}
	for _, cc := range dst.copies {
		if cc.name == "a.jpg" {
			t.Errorf("orphan image left behind: %+v", cc)
		}
	}
	if len(dst.copies) != 2 {
		t.Errorf("expected only the b pair to remain, got %+v", dst.copies)
	}
}

func TestMaterialize_OrphanRemovalFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	src := completeSource("a.txt")
	dst := &mockTarget{
		copyErr:   map[string]error{"labels/a.txt": errors.New("disk full")},
		removeErr: errors.New("read-only file system"),
	}

	report, err := New(src, dst, zap.New(core)).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Train: {"a.txt"}}))
	if err != nil {
		t.Fatalf("removal failure must not abort: %v", err)
	}
	if report.Splits[domsplit.Train].Failed != 1 {
		t.Errorf("expected one failed pair, got %+v", report.Splits[domsplit.Train])
	}
	if n := logs.FilterMessage("Orphan image removal failed").Len(); n != 1 {
		t.Errorf("expected removal failure logged once, got %d", n)
	}
}

func TestMaterialize_StatErrorCountsFailed(t *testing.T) {
	src := completeSource("a.txt")
	src.statErr = errors.New("permission denied")

	report, err := New(src, &mockTarget{}, nil).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Test: {"a.txt"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Splits[domsplit.Test].Failed != 1 {
		t.Errorf("expected failed pair, got %+v", report.Splits[domsplit.Test])
	}
}

func TestMaterialize_LayoutErrorIsFatal(t *testing.T) {
	layoutErr := errors.New("read-only filesystem")
	dst := &mockTarget{layoutErr: layoutErr}

	_, err := New(completeSource("a.txt"), dst, nil).
		Materialize(context.Background(), assignment(map[domsplit.Name][]string{domsplit.Train: {"a.txt"}}))
	if !errors.Is(err, layoutErr) {
		t.Fatalf("expected layout error, got %v", err)
	}
	if len(dst.copies) != 0 {
		t.Errorf("no copy may happen before the layout exists, got %d", len(dst.copies))
	}
}

func TestMaterialize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := &mockTarget{}
	_, err := New(completeSource("a.txt"), dst, nil).
		Materialize(ctx, assignment(map[domsplit.Name][]string{domsplit.Train: {"a.txt"}}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(dst.copies) != 0 {
		t.Errorf("expected no copies after cancel, got %d", len(dst.copies))
	}
}
