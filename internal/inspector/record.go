package inspector

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// TimestampLayout 與 JavaScript Date.toISOString() 相同格式
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record 一次 HTTP 請求/回應的觀察結果。
// 除 statusCode 外，建立後即不再變動；statusCode 由 SetStatus 補上且只會設定一次。
type Record struct {
	ID            int64
	Timestamp     time.Time
	Method        string
	URL           string
	Headers       map[string]string
	Query         map[string]any
	Body          any
	RemoteAddress string

	mu         sync.RWMutex
	statusCode *int
}

type recordJSON struct {
	ID            int64             `json:"id"`
	Timestamp     string            `json:"timestamp"`
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	Headers       map[string]string `json:"headers"`
	Query         map[string]any    `json:"query"`
	Body          any               `json:"body"`
	RemoteAddress string            `json:"remoteAddress"`
	StatusCode    *int              `json:"statusCode"`
}

// SetStatus 只有第一次呼叫生效；回傳是否為本次設定
func (r *Record) SetStatus(code int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusCode != nil {
		return false
	}
	r.statusCode = &code
	return true
}

// Status 回傳狀態碼；ok=false 代表回應尚未完成
func (r *Record) Status() (code int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.statusCode == nil {
		return 0, false
	}
	return *r.statusCode, true
}

func (r *Record) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	var status *int
	if r.statusCode != nil {
		code := *r.statusCode
		status = &code
	}
	r.mu.RUnlock()

	return json.Marshal(recordJSON{
		ID:            r.ID,
		Timestamp:     r.Timestamp.UTC().Format(TimestampLayout),
		Method:        r.Method,
		URL:           r.URL,
		Headers:       r.Headers,
		Query:         r.Query,
		Body:          r.Body,
		RemoteAddress: r.RemoteAddress,
		StatusCode:    status,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil && raw.Timestamp != "" {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ID = raw.ID
	r.Timestamp = ts
	r.Method = raw.Method
	r.URL = raw.URL
	r.Headers = raw.Headers
	r.Query = raw.Query
	r.Body = raw.Body
	r.RemoteAddress = raw.RemoteAddress
	r.statusCode = raw.StatusCode
	return nil
}

// IDGenerator 以毫秒時間戳為基礎產生嚴格遞增的 id（同一毫秒或時鐘倒退時 +1）
type IDGenerator struct {
	last atomic.Int64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Next(now time.Time) int64 {
	for {
		last := g.last.Load()
		id := now.UnixMilli()
		if id <= last {
			id = last + 1
		}
		if g.last.CompareAndSwap(last, id) {
			return id
		}
	}
}
