package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// Expirer 将到期订阅标记为 expired
type Expirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

// Service 订阅过期清理定时任务
type Service struct {
	expirer  Expirer
	schedule string
	timeout  time.Duration
	cron     *robfig.Cron
	logger   *slog.Logger
}

func NewService(expirer Expirer, schedule string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		expirer:  expirer,
		schedule: schedule,
		timeout:  time.Minute,
		cron:     robfig.New(robfig.WithChain(robfig.SkipIfStillRunning(robfig.DiscardLogger))),
		logger:   logger.With("component", "expiry_sweeper"),
	}
}

// Start 注册并启动定时任务，schedule 为空时不启动
func (s *Service) Start() error {
	if s.schedule == "" {
		s.logger.Info("expiry sweeper disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("expiry sweeper started", "schedule", s.schedule)
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Service) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("expiry sweeper stop timed out")
	}
	s.logger.Info("expiry sweeper stopped")
}

func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunNow(ctx); err != nil {
		s.logger.Error("expire subscriptions failed", "error", err)
	}
}

// RunNow 立即执行一次
func (s *Service) RunNow(ctx context.Context) (int64, error) {
	n, err := s.expirer.ExpireLapsed(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("subscriptions expired", "count", n)
	}
	return n, nil
}
