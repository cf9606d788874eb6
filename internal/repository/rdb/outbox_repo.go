package rdb

import (
	"context"
	"encoding/json"
	"time"

	"Bulletin_Board/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// Insert 在调用方的事务中写入一条帖子事件
func (r *OutboxRepository) Insert(ctx context.Context, event string, postID uint64, fields map[string]any) error {
	body := map[string]any{
		"event":      event,
		"post_id":    postID,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	ob := &model.PostOutbox{
		EventType: event,
		PostID:    postID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}
	return r.DB.WithContext(ctx).Create(ob).Error
}

// ListPending outbox查询
func (r *OutboxRepository) ListPending(ctx context.Context, batchSize int) ([]model.PostOutbox, error) {
	var list []model.PostOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败：重试计数+1，超过上限则标记失败
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64, maxRetry int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PostOutbox{}).Where("id = ?", id).
			UpdateColumn("retry", gorm.Expr("retry + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&model.PostOutbox{}).
			Where("id = ? AND retry >= ?", id, maxRetry).
			Update("status", model.OutboxFailed).Error
	})
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.PostOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

func (r *OutboxRepository) FindByID(ctx context.Context, id uint64) (*model.PostOutbox, error) {
	var ob model.PostOutbox
	err := r.DB.WithContext(ctx).First(&ob, id).Error
	return &ob, err
}
