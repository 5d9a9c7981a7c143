package config

import (
	"errors"
	"inspector/utils/validate"

	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate 檢查設定值，錯誤訊息以 mapstructure key 表示（例如 INSPECTOR.KEEP_RECORDS）
func Validate(conf *Configuration) error {
	if conf == nil {
		return errors.New("config is nil")
	}
	if err := configValidator.Struct(conf); err != nil {
		return errors.New(validate.ConfigErrorMessage(conf, err))
	}
	return nil
}
