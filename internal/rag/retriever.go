package rag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/pkg/pdfextract"
)

// DefaultIndexPath is where the snapshot lives when no path is configured.
const DefaultIndexPath = "vector_store.rag"

var (
	errInvalidUTF8 = errors.New("content is not valid UTF-8")
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
)

// Options configures a Retriever.
type Options struct {
	IndexPath    string
	ChunkSize    int
	ChunkOverlap int
}

// Retriever turns uploaded documents into a snapshot and answers top-k queries against it.
type Retriever struct {
	store     *Store
	indexPath string
	chunkSize int
	overlap   int
}

// IndexStatus summarises the snapshot currently on disk.
type IndexStatus struct {
	Path      string   `json:"path" yaml:"path"`
	Exists    bool     `json:"exists" yaml:"exists"`
	Chunks    int      `json:"chunks" yaml:"chunks"`
	Dimension int      `json:"dimension" yaml:"dimension"`
	Model     string   `json:"model" yaml:"model"`
	Files     []string `json:"files" yaml:"files"`
}

// NewRetriever validates opts and returns a Retriever backed by store.
func NewRetriever(store *Store, opts Options) (*Retriever, error) {
	if store == nil {
		return nil, errors.New("rag: store must not be nil")
	}
	if strings.TrimSpace(opts.IndexPath) == "" {
		opts.IndexPath = DefaultIndexPath
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
		if opts.ChunkOverlap == 0 {
			opts.ChunkOverlap = DefaultChunkOverlap
		}
	}
	if opts.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, opts.ChunkSize)
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d, chunk size %d", ErrInvalidOverlap, opts.ChunkOverlap, opts.ChunkSize)
	}
	return &Retriever{
		store:     store,
		indexPath: opts.IndexPath,
		chunkSize: opts.ChunkSize,
		overlap:   opts.ChunkOverlap,
	}, nil
}

// IndexPath returns the snapshot location.
func (r *Retriever) IndexPath() string { return r.indexPath }

// BuildIndex decodes, chunks and embeds docs, replacing the snapshot.
// Documents that cannot be decoded are reported in BuildResult.Errors and skipped.
// When no chunks remain the existing snapshot is left untouched.
func (r *Retriever) BuildIndex(ctx context.Context, docs []Document) (BuildResult, error) {
	result := BuildResult{PerFile: make(map[string]int)}

	var (
		texts    []string
		metadata []Metadata
	)
	for _, doc := range docs {
		text, err := decodeDocument(doc)
		if err != nil {
			decodeErr := &DecodeError{Filename: doc.Filename, Err: err}
			logging.LogWarn("[RAG] skipping %s: %v", doc.Filename, err)
			result.Errors = append(result.Errors, decodeErr)
			continue
		}
		chunks, err := ChunkDocument(doc.Filename, text, r.chunkSize, r.overlap)
		if err != nil {
			return result, err
		}
		result.Documents++
		result.PerFile[doc.Filename] = len(chunks)
		for _, c := range chunks {
			texts = append(texts, c.Text)
			metadata = append(metadata, Metadata{Filename: c.SourceFile})
		}
	}

	if len(texts) == 0 {
		logging.LogWarn("[RAG] Upload files first! No chunks produced from %d document(s)", len(docs))
		return result, nil
	}

	if err := r.store.Build(ctx, texts, metadata, r.indexPath); err != nil {
		return result, err
	}
	result.ChunkCount = len(texts)
	logging.LogEvent("[RAG] Vector store built with %d chunks! path=%s", result.ChunkCount, r.indexPath)
	return result, nil
}

// Retrieve returns the k chunks most similar to query. It never fails: any
// error is logged and reported as no results.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []Result {
	if strings.TrimSpace(query) == "" || k <= 0 {
		return nil
	}
	results, err := r.store.Search(ctx, query, k, r.indexPath)
	if err != nil {
		logging.LogError("[RAG] retrieval failed for %s: %v", r.indexPath, err)
		return nil
	}
	return results
}

// Status reports what the snapshot at the configured path holds.
func (r *Retriever) Status() (IndexStatus, error) {
	return ReadStatus(r.indexPath)
}

// ReadStatus summarises the snapshot at path without an embedder. A missing
// snapshot is reported with Exists false and no error.
func ReadStatus(path string) (IndexStatus, error) {
	status := IndexStatus{Path: path}
	snap, err := readSnapshot(path)
	if err != nil {
		return status, err
	}
	if snap == nil {
		return status, nil
	}
	status.Exists = true
	status.Chunks = snap.Len()
	status.Dimension = snap.Dimension
	status.Model = snap.Model
	status.Files = snap.Filenames()
	return status, nil
}

func decodeDocument(doc Document) (string, error) {
	if strings.EqualFold(filepath.Ext(doc.Filename), ".pdf") {
		text, err := pdfextract.ExtractText(doc.Data)
		if errors.Is(err, pdfextract.ErrNoText) {
			return "", nil
		}
		return text, err
	}
	data := bytes.TrimPrefix(doc.Data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}
