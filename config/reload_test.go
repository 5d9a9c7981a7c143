package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestartRequired(t *testing.T) {
	prev := Default()

	next := Default()
	next.Log.Level = "debug"
	assert.Empty(t, RestartRequired(prev, next), "log level applies without restart")

	next.Inspector.MaxBodyBytes = 10
	next.Fluentd.Enabled = true
	next.Log.Format = LogFormatConsole
	assert.Equal(t, []string{"LOG", "INSPECTOR", "FLUENTD"}, RestartRequired(prev, next))

	// 比對不修改參數
	assert.Equal(t, "info", prev.Log.Level)
	assert.Equal(t, "debug", next.Log.Level)
	assert.Nil(t, RestartRequired(nil, next))
}
