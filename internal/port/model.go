package port

import "morphsplit/internal/domain"

// Segmenter segments one sentence.
type Segmenter interface {
	Segment(s domain.Sentence) (domain.Sentence, error)
}

// Model is a segmentation model whose analyzer resource is attached late.
type Model interface {
	Segmenter

	// BindAnalyzer attaches the analyzer resource at path. An empty path
	// detaches any analyzer.
	BindAnalyzer(path string) error

	// AnalyzerPath returns the analyzer path recorded at build time.
	AnalyzerPath() string

	// Snapshot returns the serializable core of the model.
	Snapshot() domain.Snapshot
}

// ModelBuilder creates models from lexical resources or from a snapshot.
type ModelBuilder interface {
	Build(refs domain.ResourceRefs) (Model, error)

	Restore(snap domain.Snapshot) (Model, error)
}

// SnapshotStore persists model snapshots.
type SnapshotStore interface {
	Save(path string, snap domain.Snapshot) error

	Load(path string) (domain.Snapshot, error)

	// ReadMeta reads only the snapshot metadata.
	ReadMeta(path string) (domain.SnapshotMeta, error)
}

// Fingerprinter digests the active lexical resources.
type Fingerprinter interface {
	Fingerprint(refs domain.ResourceRefs) (string, error)
}
