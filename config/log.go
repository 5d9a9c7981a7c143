package config

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Log struct {
	// debug / info / warn / error / dpanic / panic / fatal
	Level string `mapstructure:"LEVEL" json:"level" yaml:"level"`
	// json（預設）或 console（本機開發較好讀）
	Format string `mapstructure:"FORMAT" json:"format" yaml:"format" validate:"omitempty,oneof=json console"`
	// 每秒同一訊息前 SAMPLING_INITIAL 筆全收，之後每 SAMPLING_THEREAFTER 筆留一筆；0 表示不取樣
	SamplingInitial    int `mapstructure:"SAMPLING_INITIAL" json:"sampling_initial" yaml:"sampling_initial" validate:"gte=0"`
	SamplingThereafter int `mapstructure:"SAMPLING_THEREAFTER" json:"sampling_thereafter" yaml:"sampling_thereafter" validate:"gte=0"`
}
