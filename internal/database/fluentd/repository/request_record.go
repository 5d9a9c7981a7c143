package repository

import (
	"context"
	"encoding/json"
	"inspector/config"
	"inspector/internal/core"
	"inspector/internal/database/client"
	"inspector/internal/database/fluentd/model"
	"inspector/internal/inspector"
	"time"
)

const loggedAtLayout = "2006-01-02 15:04:05.999999 UTC"

// RecordRepository 負責把完成的 RequestRecord 轉送到 Fluentd
type RecordRepository struct {
	fluentdClient client.Client
	projectName   string
	version       string
}

func NewRecordRepository(config *config.Configuration, client client.Client) *RecordRepository {
	version := "1.0.0"
	if config.App.Version != "" {
		version = config.App.Version
	}
	return &RecordRepository{fluentdClient: client, projectName: config.App.Name, version: version}
}

func (repository *RecordRepository) LogRecord(ctx context.Context, rec *inspector.Record) error {
	status, _ := rec.Status()
	entry := model.RequestRecordLog{
		RecordID:      rec.ID,
		Method:        rec.Method,
		URL:           rec.URL,
		StatusCode:    status,
		Headers:       rec.Headers,
		Query:         toJSONString(rec.Query),
		Body:          toJSONString(rec.Body),
		RemoteAddress: rec.RemoteAddress,
		ProjectName:   repository.projectName,
		Version:       repository.version,
		RequestTS:     rec.Timestamp.UTC().Format(loggedAtLayout),
		LoggedAt:      time.Now().UTC().Format(loggedAtLayout),
	}
	b, _ := json.Marshal(entry)
	var fluentdMessage map[string]any
	_ = json.Unmarshal(b, &fluentdMessage)
	return repository.fluentdClient.Post(ctx, string(core.FluentdRecord), fluentdMessage)
}

func toJSONString(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
