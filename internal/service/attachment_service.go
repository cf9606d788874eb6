package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/repository/rdb"
	"Bulletin_Board/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Download struct {
	Content      io.ReadCloser
	OriginalName string
	// EncodedName is OriginalName percent-encoded as UTF-8 with spaces as %20.
	EncodedName string
}

type AttachmentService struct {
	db        *gorm.DB
	store     storage.Store
	batchSize int
}

func NewAttachmentService(db *gorm.DB, store storage.Store) *AttachmentService {
	return &AttachmentService{db: db, store: store, batchSize: 500}
}

// Download 调用方负责关闭 Content
func (s *AttachmentService) Download(ctx context.Context, id uint64) (*Download, error) {
	a, err := (&rdb.AttachmentRepository{DB: s.db}).FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("attachment %d", id))
	}
	rc, err := s.store.Open(ctx, a.SavedName)
	if err != nil {
		return nil, fmt.Errorf("attachment %d: %w", id, err)
	}
	return &Download{
		Content:      rc,
		OriginalName: a.OriginalName,
		EncodedName:  pkg.EncodeFilename(a.OriginalName),
	}, nil
}

// MissingFiles 列出没有对应文件的附件行
func (s *AttachmentService) MissingFiles(ctx context.Context) ([]model.Attachment, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]struct{}, len(names))
	for _, n := range names {
		onDisk[n] = struct{}{}
	}

	var missing []model.Attachment
	err = s.eachAttachment(ctx, func(a model.Attachment) {
		if _, ok := onDisk[a.SavedName]; !ok {
			missing = append(missing, a)
		}
	})
	return missing, err
}

// OrphanFiles 列出没有附件行引用的文件
func (s *AttachmentService) OrphanFiles(ctx context.Context) ([]string, error) {
	known := make(map[string]struct{})
	if err := s.eachAttachment(ctx, func(a model.Attachment) {
		known[a.SavedName] = struct{}{}
	}); err != nil {
		return nil, err
	}

	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, n := range names {
		if _, ok := known[n]; !ok {
			orphans = append(orphans, n)
		}
	}
	return orphans, nil
}

func (s *AttachmentService) eachAttachment(ctx context.Context, fn func(model.Attachment)) error {
	repo := &rdb.AttachmentRepository{DB: s.db}
	var lastID uint64
	for {
		batch, err := repo.ListAfter(ctx, lastID, s.batchSize)
		if err != nil {
			return translate(err, "list attachments")
		}
		for _, a := range batch {
			fn(a)
		}
		if len(batch) < s.batchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

// AttachmentReconciler 定期对账文件与附件行，只报告不删除
type AttachmentReconciler struct {
	svc      *AttachmentService
	interval time.Duration
	log      *logger.Logger
}

func NewAttachmentReconciler(svc *AttachmentService, interval time.Duration, log *logger.Logger) *AttachmentReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &AttachmentReconciler{svc: svc, interval: interval, log: log}
}

// Run 对账定时任务启动器
func (r *AttachmentReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *AttachmentReconciler) reconcileOnce(ctx context.Context) {
	missing, err := r.svc.MissingFiles(ctx)
	if err != nil {
		r.log.Logger.Error("reconcile missing files", zap.Error(err))
		return
	}
	for _, a := range missing {
		r.log.Logger.Warn("attachment row without file",
			zap.Uint64("attachment_id", a.ID),
			zap.Uint64("post_id", a.PostID),
			zap.String("stored_name", a.SavedName))
	}

	orphans, err := r.svc.OrphanFiles(ctx)
	if err != nil {
		r.log.Logger.Error("reconcile orphan files", zap.Error(err))
		return
	}
	for _, name := range orphans {
		r.log.Logger.Warn("stored file without attachment row", zap.String("stored_name", name))
	}
	r.log.Logger.Info("attachment reconcile done",
		zap.Int("missing", len(missing)), zap.Int("orphans", len(orphans)))
}
