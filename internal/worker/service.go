package worker

import (
	"context"
	"errors"
	"time"

	"github.com/buildhub-next/internal/config"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultSweepInterval  = 2 * time.Minute
	defaultSweepBatchSize = 50
)

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
	sweepBatch    int
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, deliveryCfg *config.DeliveryConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	sweepInterval := defaultSweepInterval
	sweepBatch := defaultSweepBatchSize
	if deliveryCfg != nil {
		if deliveryCfg.SweepSeconds > 0 {
			sweepInterval = time.Duration(deliveryCfg.SweepSeconds) * time.Second
		}
		if deliveryCfg.SweepBatchSize > 0 {
			sweepBatch = deliveryCfg.SweepBatchSize
		}
	}
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: sweepInterval,
		sweepBatch:    sweepBatch,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.DeliveryService != nil {
		go s.runAssignSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runAssignSweepLoop 周期性巡检待分配订单，兜底延迟任务丢失的场景
func (s *Service) runAssignSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.DeliveryService == nil {
		return
	}
	runOnce := func() {
		assigned, err := s.consumer.DeliveryService.RetryUnassigned(s.sweepBatch)
		if err != nil {
			logger.Warnw("worker_assign_sweep_failed", "error", err)
			return
		}
		if assigned > 0 {
			logger.Infow("worker_assign_sweep_done", "assigned", assigned)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
