package service

import (
	"context"
	"time"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/repository/rdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutboxMaxRetry 超过该次数的事件标记为失败，不再投递
const OutboxMaxRetry = 5

type Sender func(ctx context.Context, ob *model.PostOutbox) error

// OutboxRelayer outbox表相关服务
type OutboxRelayer struct {
	repo      *rdb.OutboxRepository
	batchSize int
	interval  time.Duration
	maxRetry  int
	sender    Sender
	log       *logger.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, interval time.Duration, log *logger.Logger) *OutboxRelayer {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      &rdb.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  interval,
		maxRetry:  OutboxMaxRetry,
		sender:    sender,
		log:       log,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 从数据库读取待投递事件交给 sender
func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		r.log.Logger.Error("outbox query", zap.Error(err))
		return
	}
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.log.Logger.Warn("outbox send failed",
				zap.Uint64("outbox_id", ob.ID), zap.String("event", ob.EventType), zap.Error(err))
			if err := r.repo.RetryUpdate(ctx, ob.ID, r.maxRetry); err != nil {
				r.log.Logger.Error("outbox retry update", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Logger.Error("outbox success update", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
		}
	}
}

// LogSender 未配置 Kafka 时使用，只打印事件
func LogSender(log *logger.Logger) Sender {
	return func(ctx context.Context, ob *model.PostOutbox) error {
		log.Logger.Info("outbox event",
			zap.String("event", ob.EventType),
			zap.Uint64("post_id", ob.PostID),
			zap.String("payload", ob.Payload))
		return nil
	}
}

// KafkaSender 按帖子 id 分区，同一帖子的事件保持有序
func KafkaSender(p *pkg.PostEventProducer) Sender {
	return func(ctx context.Context, ob *model.PostOutbox) error {
		return p.SendPostEvent(ctx, ob.EventType, ob.PostID, []byte(ob.Payload))
	}
}
