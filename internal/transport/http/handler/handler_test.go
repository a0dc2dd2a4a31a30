package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/ragchat/internal/chat"
	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/transport/http/response"
)

type fakeIndex struct {
	docs      []rag.Document
	result    rag.BuildResult
	buildErr  error
	status    rag.IndexStatus
	statusErr error
	results   []rag.Result
	lastK     int
}

func (f *fakeIndex) BuildIndex(_ context.Context, docs []rag.Document) (rag.BuildResult, error) {
	f.docs = docs
	return f.result, f.buildErr
}

func (f *fakeIndex) Retrieve(_ context.Context, _ string, k int) []rag.Result {
	f.lastK = k
	return f.results
}

func (f *fakeIndex) Status() (rag.IndexStatus, error) { return f.status, f.statusErr }

type fakeAssistant struct {
	lastReq    chat.Request
	lastAudio  []byte
	lastName   string
	resp       chat.Response
	err        error
	transcript string
}

func (f *fakeAssistant) Ask(_ context.Context, req chat.Request) (chat.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeAssistant) AskVoice(_ context.Context, audio []byte, filename string, req chat.Request) (chat.Response, error) {
	f.lastAudio, f.lastName, f.lastReq = audio, filename, req
	return f.resp, f.err
}

func (f *fakeAssistant) Transcribe(_ context.Context, audio []byte, filename string) (string, error) {
	f.lastAudio, f.lastName = audio, filename
	return f.transcript, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func serve(h gin.HandlerFunc, method string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, "/t", h)
	req := httptest.NewRequest(method, "/t", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildIndexUploadsFiles(t *testing.T) {
	idx := &fakeIndex{result: rag.BuildResult{
		ChunkCount: 3,
		Documents:  1,
		PerFile:    map[string]int{"notes.md": 3},
		Errors:     []*rag.DecodeError{{Filename: "bad.txt", Err: errors.New("content is not valid UTF-8")}},
	}}
	h := NewRAGHandler(idx, 0, 0)
	body, ct := multipartBody(t, "files", map[string]string{"notes.md": "hello", "bad.txt": "\xff"}, nil)

	rec := serve(h.BuildIndex, http.MethodPost, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(idx.docs) != 2 {
		t.Fatalf("expected 2 documents passed to the index, got %d", len(idx.docs))
	}
	env := decode(t, rec)
	var data indexResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.ChunkCount != 3 || data.Message != "Vector store built with 3 chunks!" {
		t.Fatalf("unexpected data: %+v", data)
	}
	if len(data.Skipped) != 1 || data.Skipped[0].Filename != "bad.txt" {
		t.Fatalf("expected bad.txt to be reported as skipped, got %+v", data.Skipped)
	}
}

func TestBuildIndexNothingIndexed(t *testing.T) {
	h := NewRAGHandler(&fakeIndex{}, 0, 0)
	body, ct := multipartBody(t, "files", map[string]string{"empty.txt": ""}, nil)

	rec := serve(h.BuildIndex, http.MethodPost, body, ct)
	env := decode(t, rec)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), "Upload files first!") {
		t.Fatalf("expected upload warning, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBuildIndexErrors(t *testing.T) {
	t.Run("missing files", func(t *testing.T) {
		h := NewRAGHandler(&fakeIndex{}, 0, 0)
		body, ct := multipartBody(t, "other", map[string]string{"a.txt": "x"}, nil)
		rec := serve(h.BuildIndex, http.MethodPost, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("model unavailable", func(t *testing.T) {
		idx := &fakeIndex{buildErr: &rag.ModelUnavailableError{Provider: "ollama", Model: "nomic"}}
		h := NewRAGHandler(idx, 0, 0)
		body, ct := multipartBody(t, "files", map[string]string{"a.txt": "x"}, nil)
		rec := serve(h.BuildIndex, http.MethodPost, body, ct)
		if rec.Code != http.StatusServiceUnavailable || decode(t, rec).Code != response.CodeUnavailable {
			t.Fatalf("expected 503, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("persistence failure", func(t *testing.T) {
		idx := &fakeIndex{buildErr: &rag.PersistenceError{Op: "write", Path: "x", Err: errors.New("disk full")}}
		h := NewRAGHandler(idx, 0, 0)
		body, ct := multipartBody(t, "files", map[string]string{"a.txt": "x"}, nil)
		rec := serve(h.BuildIndex, http.MethodPost, body, ct)
		if rec.Code != http.StatusInternalServerError || decode(t, rec).Code != response.CodeIndexFailed {
			t.Fatalf("expected 500, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("too large", func(t *testing.T) {
		h := NewRAGHandler(&fakeIndex{}, 64, 0)
		body, ct := multipartBody(t, "files", map[string]string{"a.txt": strings.Repeat("x", 4096)}, nil)
		rec := serve(h.BuildIndex, http.MethodPost, body, ct)
		if rec.Code == http.StatusOK {
			t.Fatalf("expected oversize upload to be rejected, got %s", rec.Body.String())
		}
	})
}

func TestRetrieve(t *testing.T) {
	idx := &fakeIndex{results: []rag.Result{{Rank: 1, Text: "cats", Score: 0.9, Metadata: rag.Metadata{Filename: "a.txt"}}}}
	h := NewRAGHandler(idx, 0, 5)

	rec := serve(h.Retrieve, http.MethodPost, bytes.NewBufferString(`{"query":"cats"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if idx.lastK != 5 {
		t.Fatalf("expected default k 5, got %d", idx.lastK)
	}
	if !strings.Contains(rec.Body.String(), `"filename":"a.txt"`) {
		t.Fatalf("expected result in body: %s", rec.Body.String())
	}

	idx.results = nil
	rec = serve(h.Retrieve, http.MethodPost, bytes.NewBufferString(`{"query":"dogs","k":2}`), "application/json")
	if idx.lastK != 2 || !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty results with k=2, got k=%d body=%s", idx.lastK, rec.Body.String())
	}

	rec = serve(h.Retrieve, http.MethodPost, bytes.NewBufferString(`{"query":"   "}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank query, got %d", rec.Code)
	}
}

func TestAsk(t *testing.T) {
	asst := &fakeAssistant{resp: chat.Response{
		Question:  "what?",
		Answer:    " an answer \n",
		Mode:      providers.ModeConcise,
		Provider:  "simulated",
		Retrieved: []rag.Result{{Rank: 1, Text: "ctx", Score: 0.5, Metadata: rag.Metadata{Filename: "a.md"}}},
		Elapsed:   1500 * time.Millisecond,
	}}
	h := NewChatHandler(asst, 0)

	rec := serve(h.Ask, http.MethodPost, bytes.NewBufferString(`{"question":"what?","mode":"concise","web_search":true,"k":3}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := chat.Request{Question: "what?", Mode: providers.ModeConcise, UseWebSearch: true, TopK: 3}
	if asst.lastReq != want {
		t.Fatalf("unexpected request: %+v", asst.lastReq)
	}
	var data askResponse
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Answer != "an answer" || data.ElapsedMS != 1500 || len(data.Sources) != 1 || data.Sources[0].Filename != "a.md" {
		t.Fatalf("unexpected response: %+v", data)
	}
}

func TestAskErrors(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		status   int
		respCode int
	}{
		{"bad mode", `{"question":"q","mode":"verbose"}`, nil, http.StatusBadRequest, response.CodeInvalidMode},
		{"missing question", `{}`, nil, http.StatusBadRequest, response.CodeBadRequest},
		{"blank question", `{"question":"  "}`, chat.ErrEmptyQuestion, http.StatusBadRequest, response.CodeEmptyQuestion},
		{"generator failure", `{"question":"q"}`, errors.New("generate answer with openai: boom"), http.StatusBadGateway, response.CodeUpstream},
		{"timeout", `{"question":"q"}`, context.DeadlineExceeded, http.StatusGatewayTimeout, response.CodeUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatHandler(&fakeAssistant{err: tc.err}, 0)
			rec := serve(h.Ask, http.MethodPost, bytes.NewBufferString(tc.body), "application/json")
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if got := decode(t, rec).Code; got != tc.respCode {
				t.Fatalf("expected code %d, got %d", tc.respCode, got)
			}
		})
	}
}

func TestAskVoice(t *testing.T) {
	asst := &fakeAssistant{resp: chat.Response{Question: "hello", Transcript: "hello", Answer: "hi", Mode: providers.ModeDetailed}}
	h := NewChatHandler(asst, 0)
	body, ct := multipartBody(t, "audio", map[string]string{"clip.wav": "RIFF"}, map[string]string{"web_search": "true", "k": "2"})

	rec := serve(h.AskVoice, http.MethodPost, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if asst.lastName != "clip.wav" || string(asst.lastAudio) != "RIFF" {
		t.Fatalf("unexpected audio forwarded: %q %q", asst.lastName, asst.lastAudio)
	}
	if !asst.lastReq.UseWebSearch || asst.lastReq.TopK != 2 || asst.lastReq.Mode != providers.ModeDetailed {
		t.Fatalf("unexpected request: %+v", asst.lastReq)
	}
	if !strings.Contains(rec.Body.String(), `"transcript":"hello"`) {
		t.Fatalf("expected transcript in body: %s", rec.Body.String())
	}
}

func TestAskVoiceErrors(t *testing.T) {
	t.Run("missing audio", func(t *testing.T) {
		h := NewChatHandler(&fakeAssistant{}, 0)
		body, ct := multipartBody(t, "files", map[string]string{"clip.wav": "RIFF"}, nil)
		rec := serve(h.AskVoice, http.MethodPost, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("empty transcript", func(t *testing.T) {
		h := NewChatHandler(&fakeAssistant{err: chat.ErrEmptyTranscript}, 0)
		body, ct := multipartBody(t, "audio", map[string]string{"clip.wav": "RIFF"}, nil)
		rec := serve(h.AskVoice, http.MethodPost, body, ct)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("no transcriber", func(t *testing.T) {
		h := NewChatHandler(&fakeAssistant{err: chat.ErrNoTranscriber}, 0)
		body, ct := multipartBody(t, "audio", map[string]string{"clip.wav": "RIFF"}, nil)
		rec := serve(h.Transcribe, http.MethodPost, body, ct)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestTranscribe(t *testing.T) {
	asst := &fakeAssistant{transcript: "spoken words"}
	h := NewChatHandler(asst, 0)
	body, ct := multipartBody(t, "audio", map[string]string{"memo.mp3": "ID3"}, nil)

	rec := serve(h.Transcribe, http.MethodPost, body, ct)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"transcript":"spoken words"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
	if asst.lastName != "memo.mp3" {
		t.Fatalf("expected filename forwarded, got %q", asst.lastName)
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(&fakeIndex{status: rag.IndexStatus{Exists: true, Chunks: 7}}, time.Now())
	rec := serve(h.Check, http.MethodGet, &bytes.Buffer{}, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"chunks":7`) {
		t.Fatalf("unexpected health response %d: %s", rec.Code, rec.Body.String())
	}

	h = NewHealthHandler(&fakeIndex{statusErr: errors.New("decode snapshot: not a snapshot file")}, time.Now())
	rec = serve(h.Check, http.MethodGet, &bytes.Buffer{}, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unreadable snapshot, got %d", rec.Code)
	}
}
