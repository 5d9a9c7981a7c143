// Package inspector 保存最近的請求紀錄並以 Server-Sent Events 推送給觀察者。
package inspector

import (
	"inspector/config"
	"inspector/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(ProvideLogStore, ProvideRegistry, ProvideDispatcher)

func ProvideLogStore(conf *config.Configuration) *LogStore {
	return NewLogStore(conf.Inspector.MaxRecords, conf.Inspector.KeepRecords)
}

func ProvideRegistry(conf *config.Configuration) *Registry {
	return NewRegistry(conf.Inspector.SubscriberBuffer)
}

func ProvideDispatcher(
	conf *config.Configuration,
	store *LogStore,
	registry *Registry,
	logger *zap.Logger,
	metric *telemetry.Metric,
) *Dispatcher {
	return NewDispatcher(store, registry, conf.Inspector.Envelope, logger, metric)
}
