package compress

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

var ErrTooLarge = errors.New("decoded body exceeds limit")

// Decode 依 Content-Encoding 還原 body；多重編碼（"gzip, br"）由外往內逆序解開。
// limit > 0 時解壓後超過 limit 回傳 ErrTooLarge。
func Decode(raw []byte, contentEncoding string, limit int64) ([]byte, error) {
	encodings := strings.Split(contentEncoding, ",")
	out := raw
	for i := len(encodings) - 1; i >= 0; i-- {
		enc := strings.ToLower(strings.TrimSpace(encodings[i]))
		var (
			r   io.Reader
			err error
		)
		switch enc {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			r, err = gzip.NewReader(bytes.NewReader(out))
		case "deflate":
			r, err = zlib.NewReader(bytes.NewReader(out))
		case "br":
			r = brotli.NewReader(bytes.NewReader(out))
		case "zstd":
			var dec *zstd.Decoder
			dec, err = zstd.NewReader(bytes.NewReader(out))
			if err == nil {
				defer dec.Close()
				r = dec
			}
		default:
			return nil, fmt.Errorf("unsupported content-encoding %q", enc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", enc, err)
		}
		if out, err = readLimited(r, limit); err != nil {
			return nil, fmt.Errorf("%s: %w", enc, err)
		}
	}
	return out, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrTooLarge
	}
	return b, nil
}

// ---- Simple magic number checks ----

func IsGzip(b []byte) bool { return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b }

func IsZlib(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x78 && (b[1] == 0x01 || b[1] == 0x9C || b[1] == 0xDA)
}

func IsZstd(b []byte) bool {
	return len(b) >= 4 && b[0] == 0x28 && b[1] == 0xB5 && b[2] == 0x2F && b[3] == 0xFD
}
