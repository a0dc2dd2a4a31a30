package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/ragchat/internal/chat"
	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/transport/http/response"
)

// Assistant answers typed and spoken questions.
type Assistant interface {
	Ask(ctx context.Context, req chat.Request) (chat.Response, error)
	AskVoice(ctx context.Context, audio []byte, filename string, req chat.Request) (chat.Response, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type ChatHandler struct {
	assistant      Assistant
	maxUploadBytes int64
}

type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	Mode      string `json:"mode"`
	WebSearch bool   `json:"web_search"`
	K         int    `json:"k"`
}

type askResponse struct {
	Question   string         `json:"question"`
	Transcript string         `json:"transcript,omitempty"`
	Answer     string         `json:"answer"`
	Mode       providers.Mode `json:"mode"`
	Provider   string         `json:"provider"`
	Sources    []source       `json:"sources"`
	Web        []webSource    `json:"web,omitempty"`
	ElapsedMS  int64          `json:"elapsed_ms"`
}

type source struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type webSource struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

func NewChatHandler(assistant Assistant, maxUploadBytes int64) *ChatHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ChatHandler{assistant: assistant, maxUploadBytes: maxUploadBytes}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	mode, err := providers.ParseMode(req.Mode)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidMode, err.Error())
		return
	}

	resp, err := h.assistant.Ask(c.Request.Context(), chat.Request{
		Question:     req.Question,
		Mode:         mode,
		UseWebSearch: req.WebSearch,
		TopK:         req.K,
	})
	if err != nil {
		writeChatError(c, err)
		return
	}
	response.OK(c, toAskResponse(resp))
}

// AskVoice accepts a multipart form with "audio" plus optional mode,
// web_search and k fields, transcribes it and answers the transcript.
func (h *ChatHandler) AskVoice(c *gin.Context) {
	audio, filename, ok := h.readAudio(c)
	if !ok {
		return
	}
	mode, err := providers.ParseMode(c.PostForm("mode"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidMode, err.Error())
		return
	}
	web, _ := strconv.ParseBool(c.DefaultPostForm("web_search", "false"))
	k, _ := strconv.Atoi(c.PostForm("k"))

	resp, err := h.assistant.AskVoice(c.Request.Context(), audio, filename, chat.Request{
		Mode:         mode,
		UseWebSearch: web,
		TopK:         k,
	})
	if err != nil {
		writeChatError(c, err)
		return
	}
	response.OK(c, toAskResponse(resp))
}

func (h *ChatHandler) Transcribe(c *gin.Context) {
	audio, filename, ok := h.readAudio(c)
	if !ok {
		return
	}
	text, err := h.assistant.Transcribe(c.Request.Context(), audio, filename)
	if err != nil {
		writeChatError(c, err)
		return
	}
	response.OK(c, gin.H{"transcript": text})
}

func (h *ChatHandler) readAudio(c *gin.Context) ([]byte, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	file, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "audio too large")
			return nil, "", false
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing audio file (form field 'audio')")
		return nil, "", false
	}
	data, err := readUpload(file)
	if err != nil || len(data) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to read audio")
		return nil, "", false
	}
	return data, file.Filename, true
}

func writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyQuestion):
		response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, err.Error())
	case errors.Is(err, chat.ErrEmptyTranscript):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeEmptyTranscript, err.Error())
	case errors.Is(err, chat.ErrNoTranscriber):
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusGatewayTimeout, response.CodeUpstream, "request timed out")
	default:
		logging.LogError("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, err.Error())
	}
}

func toAskResponse(resp chat.Response) askResponse {
	out := askResponse{
		Question:   resp.Question,
		Transcript: resp.Transcript,
		Answer:     strings.TrimSpace(resp.Answer),
		Mode:       resp.Mode,
		Provider:   resp.Provider,
		Sources:    make([]source, 0, len(resp.Retrieved)),
		ElapsedMS:  resp.Elapsed.Milliseconds(),
	}
	for _, r := range resp.Retrieved {
		out.Sources = append(out.Sources, source{Filename: r.Metadata.Filename, Score: r.Score, Text: r.Text})
	}
	for _, w := range resp.Web {
		out.Web = append(out.Web, webSource{Title: w.Title, Link: w.Link})
	}
	return out
}
