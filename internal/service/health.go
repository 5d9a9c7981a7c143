package service

import (
	"sync/atomic"
	"time"
)

type HealthService struct {
	live      atomic.Bool
	ready     atomic.Bool
	startedAt time.Time
}

func NewHealthService() *HealthService {
	s := &HealthService{startedAt: time.Now()}
	s.live.Store(true)
	s.ready.Store(false) // 啟動完成後再打開
	return s
}

func (s *HealthService) SetReady(v bool) {
	s.ready.Store(v)
}

func (s *HealthService) IsLive() bool {
	return s.live.Load()
}

func (s *HealthService) IsReady() bool {
	return s.ready.Load()
}

func (s *HealthService) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
