package inspector

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderMap(t *testing.T) {
	h := http.Header{}
	h.Add("X-Trace", "a")
	h.Add("X-Trace", "b")
	h.Set("Content-Type", "application/json")

	got := HeaderMap(h, "localhost:3000")
	assert.Equal(t, map[string]string{
		"x-trace":      "a, b",
		"content-type": "application/json",
		"host":         "localhost:3000",
	}, got)
}

func TestValuesMap(t *testing.T) {
	v, _ := url.ParseQuery("param=1&tag=a&tag=b&empty=")
	assert.Equal(t, map[string]any{
		"param": "1",
		"tag":   []string{"a", "b"},
		"empty": "",
	}, ValuesMap(v))
}

func TestParseBody(t *testing.T) {
	body, ok := ParseBody("application/json; charset=utf-8", []byte(`{"n":12345678901234567890,"s":"x"}`))
	assert.True(t, ok)
	out, _ := json.Marshal(body)
	assert.JSONEq(t, `{"n":12345678901234567890,"s":"x"}`, string(out))

	body, ok = ParseBody("application/vnd.api+json", []byte(`[1,2]`))
	assert.True(t, ok)
	assert.Len(t, body, 2)

	// 結尾空白不影響解析
	body, ok = ParseBody("application/json", []byte("{\"a\":true}\n  \t"))
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": true}, body)

	body, ok = ParseBody("application/x-www-form-urlencoded", []byte("a=1&b=2&b=3"))
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": "1", "b": []string{"2", "3"}}, body)

	for name, tc := range map[string]struct {
		contentType string
		data        string
	}{
		"malformed json": {"application/json", `{"a":`},
		"trailing data":  {"application/json", `{} {}`},
		"extra brace":    {"application/json", `{"a":1}}`},
		"extra bracket":  {"application/json", `{"a":1}]`},
		"trailing word":  {"application/json", `[1] x`},
		"plain text":     {"text/plain", "hello"},
		"empty":          {"application/json", ""},
		"no type":        {"", `{}`},
	} {
		body, ok := ParseBody(tc.contentType, []byte(tc.data))
		assert.False(t, ok, name)
		assert.Nil(t, body, name)
	}
}
