package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidate_KeepAboveMax(t *testing.T) {
	conf := Default()
	conf.Inspector.KeepRecords = 2000

	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSPECTOR.KEEP_RECORDS")
	assert.Contains(t, err.Error(), "ltefield=MaxRecords")
}

func TestValidate_UnknownEnvelope(t *testing.T) {
	conf := Default()
	conf.Inspector.Envelope = "xml"

	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSPECTOR.ENVELOPE")
}

func TestValidate_FluentdHostRequiredWhenEnabled(t *testing.T) {
	conf := Default()
	conf.Fluentd.Enabled = true

	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLUENTD.HOST")

	conf.Fluentd.Host = "127.0.0.1"
	conf.Fluentd.Port = 24224
	assert.NoError(t, Validate(conf))
}

func TestValidate_ZeroBuffer(t *testing.T) {
	conf := Default()
	conf.Inspector.SubscriberBuffer = 0

	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSPECTOR.SUBSCRIBER_BUFFER")
}

func TestValidate_LogFormat(t *testing.T) {
	conf := Default()
	conf.Log.Format = "xml"
	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG.FORMAT")

	conf.Log.Format = ""
	assert.NoError(t, Validate(conf))
}
