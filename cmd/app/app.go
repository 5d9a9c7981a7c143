package main

import (
	"context"
	"errors"
	"fmt"
	"inspector/config"
	"inspector/internal/cron"
	"inspector/internal/service"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RuntimeInfo struct {
	Env       string    `json:"env"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	GoVersion string    `json:"go_version"`
	StartAt   time.Time `json:"start_at"`
}

type App struct {
	conf          *config.Configuration
	logger        *zap.Logger
	cronSrv       *cron.Cron
	httpServer    *http.Server
	healthService *service.HealthService

	// 關機時取消，讓 /stream 這類長連線結束
	cancelBase context.CancelFunc
	serveErr   chan error

	appInfo RuntimeInfo // 版本/環境快照（來源 = conf.App）
}

func newHttpServer(
	conf *config.Configuration,
	router *gin.Engine,
	logger *zap.Logger,
) *http.Server {
	errorLog, err := zap.NewStdLogAt(logger.Named("http"), zap.WarnLevel)
	if err != nil {
		errorLog = zap.NewStdLog(logger)
	}
	return &http.Server{
		Addr:              ":" + strconv.FormatUint(uint64(conf.App.Port), 10),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          errorLog,
	}
}

func newApp(
	conf *config.Configuration,
	logger *zap.Logger,
	httpServer *http.Server,
	healthService *service.HealthService,
	cronSrv *cron.Cron,
) *App {
	baseCtx, cancel := context.WithCancel(context.Background())
	httpServer.BaseContext = func(net.Listener) context.Context { return baseCtx }
	return &App{
		conf:          conf,
		logger:        logger,
		httpServer:    httpServer,
		healthService: healthService,
		cronSrv:       cronSrv,
		cancelBase:    cancel,
		serveErr:      make(chan error, 1),
		appInfo: RuntimeInfo{
			Env:       conf.App.Env,
			Name:      conf.App.Name,
			Version:   conf.App.Version,
			GoVersion: runtime.Version(),
			StartAt:   time.Now(),
		},
	}
}

func (a *App) Run() error {
	// 1) 啟動時寫入版本/環境資訊
	info := a.appInfo
	a.logger.Info("app runtime info",
		zap.String("env", info.Env),
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.String("go_version", info.GoVersion),
		zap.Time("start_at", info.StartAt),
	)

	// 2) 啟動 cron
	if err := a.cronSrv.Run(); err != nil {
		return err
	}
	a.logger.Info("cron server started")

	// 3) 先 listen 讓埠號被占用等錯誤直接回傳
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}
	go func() {
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server stopped unexpectedly", zap.Error(err))
			a.serveErr <- err
		}
		close(a.serveErr)
	}()
	a.healthService.SetReady(true)

	base := "http://localhost:" + strconv.FormatUint(uint64(a.conf.App.Port), 10)
	a.logger.Info("http server started",
		zap.String("addr", a.httpServer.Addr),
		zap.String("home", base),
		zap.String("test_get", base+"/api/test-get?param=1"),
		zap.String("test_post", base+"/api/test-post"),
	)
	return nil
}

// Failed http server 非正常結束時送出錯誤
func (a *App) Failed() <-chan error {
	return a.serveErr
}

func (a *App) Close(ctx context.Context) error {
	if a.healthService != nil {
		a.healthService.SetReady(false)
	}
	var errs []error

	// 先結束 stream 連線，否則 Shutdown 會等到逾時
	a.cancelBase()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	} else {
		a.logger.Info("http server has been stop")
	}

	if a.cronSrv != nil {
		if err := a.cronSrv.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cron stop: %w", err))
		} else {
			a.logger.Info("cron server has been stop")
		}
	}
	return errors.Join(errs...)
}

func (a *App) Stop(ctx context.Context) error {
	return a.Close(ctx)
}
