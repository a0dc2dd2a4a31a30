package rag

import "time"

// Chunk is a contiguous window of a source document.
type Chunk struct {
	Text       string
	SourceFile string
}

// Metadata is stored alongside every chunk in a snapshot.
type Metadata struct {
	Filename string `json:"filename" yaml:"filename"`
}

// Snapshot is the persisted unit of the vector store. Embeddings, Texts and
// Metadata are positionally correlated and always have the same length.
type Snapshot struct {
	Version    int
	Model      string
	Dimension  int
	CreatedAt  time.Time
	Embeddings [][]float32
	Texts      []string
	Metadata   []Metadata
}

// Len returns the number of chunks held by the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Texts)
}

// Filenames returns the distinct source files in snapshot order.
func (s *Snapshot) Filenames() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, m := range s.Metadata {
		if _, ok := seen[m.Filename]; ok {
			continue
		}
		seen[m.Filename] = struct{}{}
		names = append(names, m.Filename)
	}
	return names
}

// Result is a single ranked retrieval hit.
type Result struct {
	Rank     int      `json:"rank" yaml:"rank"`
	Text     string   `json:"text" yaml:"text"`
	Score    float64  `json:"score" yaml:"score"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// Document is a raw upload handed to BuildIndex.
type Document struct {
	Filename string
	Data     []byte
}

// BuildResult summarises an index build.
type BuildResult struct {
	ChunkCount int            `json:"chunk_count"`
	Documents  int            `json:"documents"`
	PerFile    map[string]int `json:"per_file,omitempty"`
	Errors     []*DecodeError `json:"-"`
}
