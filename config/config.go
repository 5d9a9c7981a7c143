package config

type Configuration struct {
	App       App             `mapstructure:"APP" json:"app" yaml:"app"`
	Log       Log             `mapstructure:"LOG" json:"log" yaml:"log"`
	Inspector Inspector       `mapstructure:"INSPECTOR" json:"inspector" yaml:"inspector"`
	Telemetry TelemetryConfig `mapstructure:"TELEMETRY" yaml:"telemetry"`
	Fluentd   Fluentd         `mapstructure:"FLUENTD" yaml:"fluentd"`
}

// Default 回傳未設定任何來源時的預設值（對齊原始 express 版本）
func Default() *Configuration {
	return &Configuration{
		App: App{
			Env:  "development",
			Port: 3000,
			Name: "inspector",
		},
		Log: Log{Level: "info", Format: LogFormatJSON},
		Inspector: Inspector{
			MaxRecords:       1000,
			KeepRecords:      500,
			SubscriberBuffer: 256,
			MaxBodyBytes:     1 << 20,
			Envelope:         EnvelopeLegacy,
			PublicDir:        "public",
			StatsSpec:        "@every 1m",
		},
	}
}
