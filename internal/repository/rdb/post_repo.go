package rdb

import (
	"context"
	"time"

	"Bulletin_Board/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Omit("Comments", "Attachments").Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, id).Error
	return &post, err
}

// FindDetail 帖子连同评论（按时间正序）与附件
func (r *PostRepository) FindDetail(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&post, id).Error
	return &post, err
}

// List 基础分页查询，最新优先；同一时间点用 id 打破并列
func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Count(&n).Error
	return n, err
}

func (r *PostRepository) UpdateContent(ctx context.Context, id uint64, title, content string, updatedAt time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"content":    content,
		"updated_at": updatedAt,
	}).Error
}

// SetViews 直接写入调用方算好的值（读-改-写，并发下可能丢失计数）
func (r *PostRepository) SetViews(ctx context.Context, id uint64, views int64) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn("views", views).Error
}

// Delete 硬删除帖子行；子行由服务层先行删除
func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.Post{}, id).Error
}

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id uint64, content string) error {
	return r.DB.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).
		Update("content", content).Error
}

func (r *CommentRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Delete(&model.Comment{}, id)
	return tx.RowsAffected, tx.Error
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID uint64) error {
	return r.DB.WithContext(ctx).Where("post_id = ?", postID).Delete(&model.Comment{}).Error
}

type AttachmentRepository struct {
	DB *gorm.DB
}

func (r *AttachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id uint64) (*model.Attachment, error) {
	var a model.Attachment
	err := r.DB.WithContext(ctx).First(&a, id).Error
	return &a, err
}

func (r *AttachmentRepository) ListByPost(ctx context.Context, postID uint64) ([]model.Attachment, error) {
	var list []model.Attachment
	err := r.DB.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&list).Error
	return list, err
}

// ListAfter 按 id 游标批量读取，供对账使用
func (r *AttachmentRepository) ListAfter(ctx context.Context, lastID uint64, limit int) ([]model.Attachment, error) {
	var list []model.Attachment
	err := r.DB.WithContext(ctx).Where("id > ?", lastID).Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *AttachmentRepository) ExistsBySavedName(ctx context.Context, savedName string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Attachment{}).Where("saved_name = ?", savedName).Count(&n).Error
	return n > 0, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.Attachment{}, id).Error
}

func (r *AttachmentRepository) DeleteByPost(ctx context.Context, postID uint64) error {
	return r.DB.WithContext(ctx).Where("post_id = ?", postID).Delete(&model.Attachment{}).Error
}
