package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"inspector/config"
	"inspector/internal/inspector"
	"inspector/internal/log"
	cErr "inspector/internal/pkg/error"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagURL           = "url"
	flagJSON          = "json"
	flagMaxEventBytes = "max-event-bytes"
)

type TailHandler struct {
	logger *zap.Logger
	client *http.Client
}

func NewTailHandler(logger *zap.Logger, client *http.Client) *TailHandler {
	return &TailHandler{
		logger: logger.Named(log.NameTail),
		client: client,
	}
}

func BindTailFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagURL, "http://localhost:3000", "inspector base url")
	cmd.Flags().Bool(flagJSON, false, "print each record as raw JSON")
	defaults := config.Default().Inspector
	cmd.Flags().Int(flagMaxEventBytes, inspector.MaxEventSize(defaults.MaxRecords, defaults.MaxBodyBytes),
		"largest accepted stream event; raise it when the server runs with bigger MAX_RECORDS or MAX_BODY_BYTES")
}

// Tail 連到 <url>/stream，印出歷史筆數與之後每筆完成的請求；SIGINT/SIGTERM 結束
func (handler *TailHandler) Tail(cmd *cobra.Command, args []string) error {
	base, _ := cmd.Flags().GetString(flagURL)
	asJSON, _ := cmd.Flags().GetBool(flagJSON)
	maxEventBytes, _ := cmd.Flags().GetInt(flagMaxEventBytes)
	if len(args) > 0 {
		base = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := handler.Follow(ctx, base, maxEventBytes, func(ev *inspector.Event) error {
		return printEvent(cmd.OutOrStdout(), ev, asJSON)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Follow 讀取 stream 並把解碼後的事件交給 fn，直到 ctx 結束或連線中斷。
// maxEventBytes <= 0 時以預設容量計算上限。
func (handler *TailHandler) Follow(ctx context.Context, base string, maxEventBytes int, fn func(*inspector.Event) error) error {
	if maxEventBytes <= 0 {
		defaults := config.Default().Inspector
		maxEventBytes = inspector.MaxEventSize(defaults.MaxRecords, defaults.MaxBodyBytes)
	}
	url := strings.TrimRight(base, "/") + "/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cErr.BadRequest(err.Error())
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := handler.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cErr.ExternalRequestError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cErr.MapHttpStatusToError(resp.StatusCode, fmt.Sprintf("GET %s: %s", url, resp.Status))
	}
	handler.logger.Debug("[Tail] connected", zap.String("url", url))

	err = inspector.ReadEventsLimit(resp.Body, maxEventBytes, func(data []byte) error {
		ev, err := inspector.DecodeEvent(data)
		if err != nil {
			handler.logger.Warn("[Tail] skip undecodable event", zap.Error(err))
			return nil
		}
		return fn(ev)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, inspector.ErrEventTooLarge) {
		return fmt.Errorf("%w (use --%s)", err, flagMaxEventBytes)
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return nil
}

func printEvent(w io.Writer, ev *inspector.Event, asJSON bool) error {
	switch ev.Type {
	case inspector.EventTypeHistory:
		_, err := fmt.Fprintf(w, "-- history: %d records\n", len(ev.History))
		return err
	default:
		if asJSON {
			b, err := json.Marshal(ev.Record)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\n", b)
			return err
		}
		_, err := fmt.Fprintln(w, FormatRecord(ev.Record))
		return err
	}
}

// FormatRecord 一行摘要：時間 method url status ip
func FormatRecord(rec *inspector.Record) string {
	status := "-"
	if code, ok := rec.Status(); ok {
		status = fmt.Sprint(code)
	}
	return fmt.Sprintf("%s %-6s %s %s %s",
		rec.Timestamp.UTC().Format(inspector.TimestampLayout),
		rec.Method, rec.URL, status, rec.RemoteAddress)
}
