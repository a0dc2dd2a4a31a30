package rag

import "errors"

const (
	// DefaultChunkSize is the window length, in characters, used when the caller has no preference.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of characters shared by consecutive windows.
	DefaultChunkOverlap = 100
)

var (
	// ErrInvalidChunkSize is returned when the window length is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than zero")
	// ErrInvalidOverlap is returned when overlap is negative or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("chunk overlap must be zero or greater and smaller than chunk size")
)

// ChunkText splits text into overlapping windows of chunkSize characters.
// Characters are Unicode code points. Each window starts overlap characters
// before the end of the previous one, and the final window ends at the end of
// the text.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}

	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < length {
		end := start + chunkSize
		if end > length {
			end = length
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == length {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks, nil
}

// ChunkDocument chunks text and tags every window with its source file.
func ChunkDocument(filename, text string, chunkSize, overlap int) ([]Chunk, error) {
	windows, err := ChunkText(text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = Chunk{Text: w, SourceFile: filename}
	}
	return chunks, nil
}
