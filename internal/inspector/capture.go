package inspector

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// HeaderMap header 名稱轉小寫，重複的值以 ", " 串接。Host 由 net/http 另外保存，這裡補回。
func HeaderMap(h http.Header, host string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	if _, ok := out["host"]; !ok && host != "" {
		out["host"] = host
	}
	return out
}

// ValuesMap 單一值為 string，重複 key 為 []string
func ValuesMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = v[0]
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// ParseBody 依 Content-Type 解析 JSON 或 urlencoded；其他格式或解析失敗回傳 (nil, false)
func ParseBody(contentType string, data []byte) (any, bool) {
	if len(data) == 0 || contentType == "" {
		return nil, false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	switch {
	case isJSONMediaType(mediaType):
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		// 第一個值之後只允許空白；多出的 token（含多餘的 } 或 ]）視為語法錯誤
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, false
		}
		return v, true
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, false
		}
		return ValuesMap(values), true
	default:
		return nil, false
	}
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
