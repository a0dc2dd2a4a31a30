package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/transport/http/response"
)

// DefaultMaxUploadBytes bounds a single multipart request.
const DefaultMaxUploadBytes = 32 << 20

// Index is the document store behind the API.
type Index interface {
	BuildIndex(ctx context.Context, docs []rag.Document) (rag.BuildResult, error)
	Retrieve(ctx context.Context, query string, k int) []rag.Result
	Status() (rag.IndexStatus, error)
}

type RAGHandler struct {
	index          Index
	maxUploadBytes int64
	defaultK       int

	// builds replace the whole snapshot, so only one runs at a time
	buildMu sync.Mutex
}

type RetrieveRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k"`
}

type skippedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type indexResponse struct {
	ChunkCount int            `json:"chunk_count"`
	Documents  int            `json:"documents"`
	PerFile    map[string]int `json:"per_file,omitempty"`
	Skipped    []skippedFile  `json:"skipped,omitempty"`
	Message    string         `json:"message"`
}

func NewRAGHandler(index Index, maxUploadBytes int64, defaultK int) *RAGHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if defaultK <= 0 {
		defaultK = 4
	}
	return &RAGHandler{index: index, maxUploadBytes: maxUploadBytes, defaultK: defaultK}
}

// BuildIndex accepts a multipart form with one or more "files" and replaces the
// snapshot with their chunks.
func (h *RAGHandler) BuildIndex(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge,
				fmt.Sprintf("upload too large (max %d MB)", h.maxUploadBytes>>20))
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing files (form field 'files')")
		return
	}

	docs := make([]rag.Document, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to read "+fh.Filename)
			return
		}
		docs = append(docs, rag.Document{Filename: fh.Filename, Data: data})
	}

	h.buildMu.Lock()
	result, err := h.index.BuildIndex(c.Request.Context(), docs)
	h.buildMu.Unlock()
	if err != nil {
		logging.LogError("[HTTP] index build failed: %v", err)
		if errors.Is(err, rag.ErrModelUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeIndexFailed, "index build failed: "+err.Error())
		return
	}

	out := indexResponse{
		ChunkCount: result.ChunkCount,
		Documents:  result.Documents,
		PerFile:    result.PerFile,
	}
	for _, de := range result.Errors {
		out.Skipped = append(out.Skipped, skippedFile{Filename: de.Filename, Error: de.Err.Error()})
	}
	if result.ChunkCount == 0 {
		out.Message = "Upload files first! Nothing was indexed."
	} else {
		out.Message = fmt.Sprintf("Vector store built with %d chunks!", result.ChunkCount)
	}
	response.OK(c, out)
}

func (h *RAGHandler) Status(c *gin.Context) {
	status, err := h.index.Status()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeIndexFailed, err.Error())
		return
	}
	response.OK(c, status)
}

func (h *RAGHandler) Retrieve(c *gin.Context) {
	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	k := req.K
	if k <= 0 {
		k = h.defaultK
	}
	results := h.index.Retrieve(c.Request.Context(), req.Query, k)
	if results == nil {
		results = []rag.Result{}
	}
	response.OK(c, gin.H{"results": results})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
