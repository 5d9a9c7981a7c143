package handler

import (
	"inspector/config"
	"inspector/internal/core"
	"inspector/internal/inspector"
	"inspector/utils/compress"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 產生測試流量用的兩個端點
type TestHandler struct {
	config *config.Configuration
}

func NewTestHandler(config *config.Configuration) *TestHandler {
	return &TestHandler{config: config}
}

type testGetResponse struct {
	Message string         `json:"message"`
	Query   map[string]any `json:"query"`
}

type testPostResponse struct {
	Message string `json:"message"`
	Body    any    `json:"body"`
}

// TestGet GET /api/test-get：回聲 query
func (h *TestHandler) TestGet(c *gin.Context) {
	c.JSON(http.StatusOK, testGetResponse{
		Message: "This is a GET response",
		Query:   inspector.ValuesMap(c.Request.URL.Query()),
	})
}

// TestPost POST /api/test-post：回聲解析後的 body，無法解析時為 {}
func (h *TestHandler) TestPost(c *gin.Context) {
	body := h.parsedBody(c)
	if body == nil {
		body = gin.H{}
	}
	c.JSON(http.StatusOK, testPostResponse{
		Message: "This is a POST response",
		Body:    body,
	})
}

// 優先沿用 Recorder 已解析的結果，避免重複解壓
func (h *TestHandler) parsedBody(c *gin.Context) any {
	if v, ok := c.Get(core.ContextRecordKey); ok {
		if rec, ok := v.(*inspector.Record); ok {
			return rec.Body
		}
	}
	limit := h.config.Inspector.MaxBodyBytes
	if c.Request.Body == nil || limit <= 0 {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil || int64(len(raw)) > limit {
		return nil
	}
	decoded, err := compress.Decode(raw, c.GetHeader("Content-Encoding"), limit)
	if err != nil {
		return nil
	}
	body, _ := inspector.ParseBody(c.GetHeader("Content-Type"), decoded)
	return body
}
