package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

const derinetFixture = `# id	lemma	techlemma	pos	parent
1	read	read	V
2	reader	reader	N	1
3	readerly	readerly	A	2
4	housing	housing	N
5	house	house	N	4
6	dog	dog	N
7	učit	učit	V
8	učitel	učitel	N	7
9	ghost	ghost	N	42
`

const morfflexFixture = `učitel	NNMS1-----A----	učitel
učitel	NNMS2-----A----	učitele
pes_^(zvíře)	NNMS2-----A----	psa
`

const analyzerFixture = "readers\treader\tNNS\n"

type fixture struct {
	dir      string
	derinet  string
	morfflex string
	analyzer string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		derinet:  filepath.Join(dir, "derinet.tsv"),
		morfflex: filepath.Join(dir, "morfflex.tab.csv"),
		analyzer: filepath.Join(dir, "analyzer.tsv"),
	}
	for path, content := range map[string]string{
		f.derinet:  derinetFixture,
		f.morfflex: morfflexFixture,
		f.analyzer: analyzerFixture,
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func build(t *testing.T, refs domain.ResourceRefs) port.Model {
	t.Helper()
	m, err := NewBuilder(nil, nil).Build(refs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func segment(t *testing.T, m port.Model, tokens ...string) [][]string {
	t.Helper()
	out, err := m.Segment(domain.NewSentence(tokens...))
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	morphs := make([][]string, len(out.Words))
	for i, w := range out.Words {
		morphs[i] = w.Morphs
	}
	return morphs
}

func TestBuild_LemmasOnly(t *testing.T) {
	f := newFixture(t)
	m := build(t, domain.ResourceRefs{Base: f.derinet})

	got := segment(t, m, "dog", "house", "readerly", "Reader", "učitel", "ghost", "unknown")
	want := [][]string{
		{"dog"},
		{"hous", "e"},
		{"read", "er", "ly"},
		{"Read", "er"},
		{"učit", "el"},
		{"ghost"},
		{"unknown"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Inflected forms are unknown without enrichment or analyzer.
	got = segment(t, m, "učitele")
	if len(got[0]) != 1 {
		t.Errorf("expected učitele unsegmented, got %v", got[0])
	}
}

func TestBuild_WithEnrichment(t *testing.T) {
	f := newFixture(t)
	m := build(t, domain.ResourceRefs{Base: f.derinet, Enrichment: f.morfflex})

	got := segment(t, m, "učitele", "psa")
	want := [][]string{{"učit", "el", "e"}, {"p", "sa"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestModel_BindAnalyzer(t *testing.T) {
	f := newFixture(t)
	m := build(t, domain.ResourceRefs{Base: f.derinet, Analyzer: f.analyzer})

	if m.AnalyzerPath() != f.analyzer {
		t.Errorf("expected analyzer path %s, got %s", f.analyzer, m.AnalyzerPath())
	}

	if got := segment(t, m, "readers"); len(got[0]) != 1 {
		t.Errorf("expected no analysis before binding, got %v", got[0])
	}

	if err := m.BindAnalyzer(m.AnalyzerPath()); err != nil {
		t.Fatalf("bind: %v", err)
	}
	got := segment(t, m, "readers")
	if want := []string{"read", "er", "s"}; !reflect.DeepEqual(got[0], want) {
		t.Errorf("expected %v, got %v", want, got[0])
	}

	if err := m.BindAnalyzer(""); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	if got := segment(t, m, "readers"); len(got[0]) != 1 {
		t.Errorf("expected no analysis after unbinding, got %v", got[0])
	}

	if err := m.BindAnalyzer(filepath.Join(f.dir, "missing.tsv")); err == nil {
		t.Error("expected error binding a missing analyzer")
	}
}

func TestModel_DiscardsInputSegmentation(t *testing.T) {
	f := newFixture(t)
	m := build(t, domain.ResourceRefs{Base: f.derinet})

	in := domain.Sentence{Words: []domain.Word{{Morphs: []string{"r", "eader"}}}}
	out, err := m.Segment(in)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"read", "er"}; !reflect.DeepEqual(out.Words[0].Morphs, want) {
		t.Errorf("expected %v, got %v", want, out.Words[0].Morphs)
	}
}

func TestModel_DecomposedInputKeepsText(t *testing.T) {
	f := newFixture(t)
	m := build(t, domain.ResourceRefs{Base: f.derinet})

	decomposed := "uc\u030citel"
	got := segment(t, m, decomposed)
	if len(got[0]) != 1 || got[0][0] != decomposed {
		t.Errorf("expected decomposed token untouched, got %q", got[0])
	}
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(nil, nil)
	built := build(t, domain.ResourceRefs{Base: f.derinet, Enrichment: f.morfflex, Analyzer: f.analyzer})

	snap := built.Snapshot()
	if snap.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, snap.SchemaVersion)
	}

	restored, err := b.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.AnalyzerPath() != f.analyzer {
		t.Errorf("expected analyzer path to survive restore, got %q", restored.AnalyzerPath())
	}

	tokens := []string{"house", "readerly", "učitele", "psa", "dog"}
	if !reflect.DeepEqual(segment(t, built, tokens...), segment(t, restored, tokens...)) {
		t.Error("restored model segments differently")
	}

	snap.SchemaVersion = SchemaVersion + 1
	if _, err := b.Restore(snap); err == nil {
		t.Error("expected error for foreign schema version")
	}
}

func TestBuild_Errors(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(nil, nil)

	_, err := b.Build(domain.ResourceRefs{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error for empty base, got %v", err)
	}

	_, err = b.Build(domain.ResourceRefs{Base: filepath.Join(f.dir, "missing.tsv.gz")})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error for missing base, got %v", err)
	}

	_, err = b.Build(domain.ResourceRefs{Base: f.derinet, Enrichment: filepath.Join(f.dir, "missing.xz")})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error for missing enrichment, got %v", err)
	}

	bad := filepath.Join(f.dir, "bad.tsv")
	if err := os.WriteFile(bad, []byte("x\tlemma\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(domain.ResourceRefs{Base: bad}); err == nil {
		t.Error("expected parse error for non-integer id")
	}
}

func TestBuild_DerivationCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cycle.tsv")
	if err := os.WriteFile(path, []byte("1\tabc\tabc\tN\t2\n2\tabd\tabd\tN\t1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m := build(t, domain.ResourceRefs{Base: path})
	got := segment(t, m, "abc")
	if len(got[0]) != 2 {
		t.Errorf("expected a single cut despite the cycle, got %v", got[0])
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		word, ref string
		bounds    []int
		want      []int
	}{
		{"house", "housing", nil, []int{4}},
		{"readerly", "reader", []int{4}, []int{4, 6}},
		{"reader", "readerly", []int{4, 6}, []int{4}},
		{"dog", "cat", []int{1}, nil},
		{"dog", "dog", nil, nil},
		{"učitele", "učitel", []int{4}, []int{4, 6}},
	}
	for _, tt := range tests {
		got := project(tt.word, tt.ref, tt.bounds)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("project(%q, %q, %v) = %v, want %v", tt.word, tt.ref, tt.bounds, got, tt.want)
		}
	}
}

func TestSplit_OutOfRange(t *testing.T) {
	for _, bounds := range [][]int{{0}, {5}, {3, 2}, {2, 2}} {
		_, err := split("house", bounds)
		if !errors.Is(err, domain.ErrSegmentation) {
			t.Errorf("split(house, %v): expected segmentation error, got %v", bounds, err)
		}
	}
}

func TestStripTechnical(t *testing.T) {
	tests := map[string]string{
		"pes_^(zvíře)": "pes",
		"být-1":        "být",
		"e-mail":       "e-mail",
		"plain":        "plain",
		"_":            "_",
	}
	for in, want := range tests {
		if got := stripTechnical(in); got != want {
			t.Errorf("stripTechnical(%q) = %q, want %q", in, got, want)
		}
	}
}
