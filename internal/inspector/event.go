package inspector

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	EnvelopeLegacy = "legacy"
	EnvelopeTyped  = "typed"

	EventTypeHistory = "history"
	EventTypeRecord  = "record"
)

var (
	fieldData  = []byte("data: ")
	frameDelim = []byte("\n\n")
)

type historyEnvelope struct {
	Type string    `json:"type"`
	Logs []*Record `json:"logs"`
}

type recordEnvelope struct {
	Type   string  `json:"type"`
	Record *Record `json:"record"`
}

// EncodeHistory 產生 {"type":"history","logs":[...]} 的 SSE frame
func EncodeHistory(records []*Record) ([]byte, error) {
	if records == nil {
		records = []*Record{}
	}
	payload, err := json.Marshal(historyEnvelope{Type: EventTypeHistory, Logs: records})
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return frame(payload), nil
}

// EncodeRecord legacy 直接送出 record；typed 包成 {"type":"record","record":{...}}
func EncodeRecord(rec *Record, envelope string) ([]byte, error) {
	var v any = rec
	if envelope == EnvelopeTyped {
		v = recordEnvelope{Type: EventTypeRecord, Record: rec}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return frame(payload), nil
}

func frame(payload []byte) []byte {
	b := make([]byte, 0, len(fieldData)+len(payload)+len(frameDelim))
	b = append(b, fieldData...)
	b = append(b, payload...)
	return append(b, frameDelim...)
}

// Event 解碼後的 stream 事件，History 與 Record 擇一
type Event struct {
	Type    string
	History []*Record
	Record  *Record
}

// DecodeEvent 同時接受 legacy（無 type 的 record）與 typed 兩種格式
func DecodeEvent(data []byte) (*Event, error) {
	var probe struct {
		Type   string          `json:"type"`
		Logs   json.RawMessage `json:"logs"`
		Record json.RawMessage `json:"record"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case EventTypeHistory:
		var logs []*Record
		if len(probe.Logs) > 0 {
			if err := json.Unmarshal(probe.Logs, &logs); err != nil {
				return nil, err
			}
		}
		return &Event{Type: EventTypeHistory, History: logs}, nil
	case EventTypeRecord:
		rec := &Record{}
		if err := json.Unmarshal(probe.Record, rec); err != nil {
			return nil, err
		}
		return &Event{Type: EventTypeRecord, Record: rec}, nil
	case "":
		rec := &Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, err
		}
		return &Event{Type: EventTypeRecord, Record: rec}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", probe.Type)
	}
}

// 每筆 record 除了 body 之外的 header、query 等欄位預估上限
const recordOverhead = 16 << 10

// MaxEventSize 一個 history 事件可能的最大長度：body 經 JSON 跳脫後以兩倍估算
func MaxEventSize(maxRecords int, maxBodyBytes int64) int {
	if maxRecords <= 0 {
		maxRecords = 1
	}
	if maxBodyBytes < 0 {
		maxBodyBytes = 0
	}
	const limit = math.MaxInt32
	if maxBodyBytes > limit {
		return limit
	}
	per := 2*maxBodyBytes + recordOverhead
	if per > (limit-bufio.MaxScanTokenSize)/int64(maxRecords) {
		return limit
	}
	return int(int64(maxRecords)*per + bufio.MaxScanTokenSize)
}

// ErrEventTooLarge 單一事件超過 ReadEventsLimit 的上限
var ErrEventTooLarge = errors.New("sse event too large")

// ReadEvents 以預設容量（1000 筆、1 MiB body）計算上限的 ReadEventsLimit
func ReadEvents(r io.Reader, fn func(data []byte) error) error {
	return ReadEventsLimit(r, MaxEventSize(1000, 1<<20), fn)
}

// ReadEventsLimit 讀取 SSE stream，每個完整事件的 data 內容交給 fn。
// 多行 data 以 \n 串接；註解行與其他欄位忽略。單行超過 maxSize 回傳 ErrEventTooLarge。
func ReadEventsLimit(r io.Reader, maxSize int, fn func(data []byte) error) error {
	scanner := bufio.NewScanner(r)
	initial := 64 * 1024
	if maxSize < initial {
		initial = maxSize
	}
	scanner.Buffer(make([]byte, initial), maxSize)

	var buf bytes.Buffer
	hasData := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			if hasData {
				if err := fn(bytes.Clone(buf.Bytes())); err != nil {
					return err
				}
			}
			buf.Reset()
			hasData = false
			continue
		}
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		value := bytes.TrimPrefix(line[len("data:"):], []byte(" "))
		if hasData {
			buf.WriteByte('\n')
		}
		buf.Write(value)
		hasData = true
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("%w: line exceeds %d bytes", ErrEventTooLarge, maxSize)
		}
		return err
	}
	return nil
}
