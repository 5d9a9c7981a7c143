package model

// RequestRecordLog 送往 Fluentd 的完成紀錄；body 以 JSON 字串保存，避免 msgpack 型別不一
type RequestRecordLog struct {
	RecordID      int64             `json:"record_id"`
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	StatusCode    int               `json:"status_code"`
	Headers       map[string]string `json:"headers,omitempty"`
	Query         string            `json:"query,omitempty"`
	Body          string            `json:"body,omitempty"`
	RemoteAddress string            `json:"remote_address,omitempty"`
	ProjectName   string            `json:"project_name,omitempty"`
	Version       string            `json:"version,omitempty"`
	RequestTS     string            `json:"request_ts"`
	LoggedAt      string            `json:"logged_at"`
}
