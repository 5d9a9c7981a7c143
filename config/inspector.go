package config

const (
	// live event 直接送出 record（與歷史事件不對稱）
	EnvelopeLegacy = "legacy"
	// live event 包成 {"type":"record","record":{...}}
	EnvelopeTyped = "typed"
)

type Inspector struct {
	// 超過此筆數即觸發截斷
	MaxRecords int `mapstructure:"MAX_RECORDS" json:"max_records" yaml:"max_records" validate:"gte=1"`
	// 截斷後保留最新的筆數
	KeepRecords int `mapstructure:"KEEP_RECORDS" json:"keep_records" yaml:"keep_records" validate:"gte=1,ltefield=MaxRecords"`
	// 每個訂閱者的待送事件上限，塞滿即斷線
	SubscriberBuffer int `mapstructure:"SUBSCRIBER_BUFFER" json:"subscriber_buffer" yaml:"subscriber_buffer" validate:"gte=1"`
	// 紀錄 body 時最多讀取的位元組
	MaxBodyBytes int64 `mapstructure:"MAX_BODY_BYTES" json:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=0"`
	Envelope     string `mapstructure:"ENVELOPE" json:"envelope" yaml:"envelope" validate:"oneof=legacy typed"`
	PublicDir    string `mapstructure:"PUBLIC_DIR" json:"public_dir" yaml:"public_dir"`
	// cron 規則，空字串代表不啟用統計 job
	StatsSpec string `mapstructure:"STATS_SPEC" json:"stats_spec" yaml:"stats_spec"`
}
