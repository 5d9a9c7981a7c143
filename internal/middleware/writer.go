package middleware

import (
	"bufio"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// recordingWriter 在第一個 byte 寫出前呼叫 onComplete（只呼叫一次）。
// gin 的 WriteHeader 只記錄狀態碼，真正送出發生在 WriteHeaderNow/Write/Flush/Hijack。
type recordingWriter struct {
	gin.ResponseWriter
	once       sync.Once
	onComplete func(status int)
}

func newRecordingWriter(w gin.ResponseWriter, onComplete func(status int)) *recordingWriter {
	return &recordingWriter{ResponseWriter: w, onComplete: onComplete}
}

func (w *recordingWriter) complete() {
	w.once.Do(func() {
		w.onComplete(w.ResponseWriter.Status())
	})
}

func (w *recordingWriter) WriteHeaderNow() {
	if !w.ResponseWriter.Written() {
		w.complete()
	}
	w.ResponseWriter.WriteHeaderNow()
}

func (w *recordingWriter) Write(data []byte) (int, error) {
	w.complete()
	return w.ResponseWriter.Write(data)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.complete()
	return w.ResponseWriter.WriteString(s)
}

func (w *recordingWriter) Flush() {
	w.complete()
	w.ResponseWriter.Flush()
}

func (w *recordingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.complete()
	return w.ResponseWriter.Hijack()
}

// Unwrap 讓 http.ResponseController 找到底層的 ResponseWriter（write deadline 等）
func (w *recordingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
