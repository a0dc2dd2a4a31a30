package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	index     Index
	startedAt time.Time
}

type indexHealth struct {
	OK      bool   `json:"ok"`
	Exists  bool   `json:"exists"`
	Chunks  int    `json:"chunks"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(index Index, startedAt time.Time) *HealthHandler {
	return &HealthHandler{index: index, startedAt: startedAt}
}

// Check reports liveness and whether the snapshot on disk is readable. A
// missing snapshot is healthy; a corrupt one is not.
func (h *HealthHandler) Check(c *gin.Context) {
	status := indexHealth{OK: true}
	st, err := h.index.Status()
	if err != nil {
		status = indexHealth{OK: false, Message: err.Error()}
	} else {
		status.Exists = st.Exists
		status.Chunks = st.Chunks
	}

	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"app":        "ragchat",
		"uptime_sec": int(time.Since(h.startedAt).Seconds()),
		"index":      status,
	})
}
