package config

type App struct {
	// 當前開發環境
	Env string `mapstructure:"ENV" json:"env" yaml:"env" validate:"omitempty,oneof=development production test"`
	// 服務端口
	Port uint32 `mapstructure:"PORT" json:"port" yaml:"port" validate:"lte=65535"`
	// 服務名稱
	Name string `mapstructure:"NAME" json:"name" yaml:"name" validate:"required"`
	// 服務版本
	Version string `mapstructure:"VERSION" json:"version" yaml:"version"`
	// 掛載 /debug/pprof
	PprofEnabled bool `mapstructure:"PPROF_ENABLED" json:"pprof_enabled" yaml:"pprof_enabled"`
}
