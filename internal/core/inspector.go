package core

// Recorder 建立的 *inspector.Record 在 gin.Context 中的 key
const ContextRecordKey = "inspector_record"

type FluentdSubTag string

const (
	// 完成的 RequestRecord
	FluentdRecord FluentdSubTag = "request_record"
)
