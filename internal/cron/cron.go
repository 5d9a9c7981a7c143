package cron

import (
	"context"
	"inspector/config"
	"inspector/internal/inspector"
	"inspector/internal/log"
	"inspector/internal/telemetry"

	"github.com/google/wire"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(NewCron)

type Cron struct {
	logger     *zap.Logger
	config     *config.Configuration
	dispatcher *inspector.Dispatcher
	metric     *telemetry.Metric
	server     *cron.Cron
}

// NewCron .
func NewCron(
	logger *zap.Logger,
	config *config.Configuration,
	dispatcher *inspector.Dispatcher,
	metric *telemetry.Metric,
) *Cron {
	logger = logger.Named(log.NameCron)
	server := cron.New(
		cron.WithSeconds(),
		// job panic 只記錄，不影響程序
		cron.WithChain(cron.Recover(cronLogger{logger: logger})),
	)

	return &Cron{
		logger:     logger,
		config:     config,
		dispatcher: dispatcher,
		metric:     metric,
		server:     server,
	}
}

func (c *Cron) Run() error {
	if spec := c.config.Inspector.StatsSpec; spec != "" {
		if _, err := c.server.AddFunc(spec, c.Stats); err != nil {
			return err
		}
	}

	c.server.Start()
	return nil
}

func (c *Cron) Stop(ctx context.Context) error {
	stopped := c.server.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats 定期校正 gauge 並輸出目前 store / registry 大小
func (c *Cron) Stats() {
	size := c.dispatcher.Store().Len()
	subscribers := c.dispatcher.Registry().Len()
	max, keep := c.dispatcher.Store().Capacity()
	c.metric.SetGauges(size, subscribers)
	c.logger.Info("[Stats] inspector",
		zap.Int("records", size),
		zap.Int("max_records", max),
		zap.Int("keep_records", keep),
		zap.Int("subscribers", subscribers),
	)
}

// cronLogger 把 cron.Logger 轉接到 zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("[Cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("[Cron] "+msg, append(keysAndValues, "error", err)...)
}
