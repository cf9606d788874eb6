package service

import (
	"context"
	"errors"
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

// FileUpload is one uploaded part. Files with Size 0 are ignored.
type FileUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type Page struct {
	Items      []model.Post `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	TotalPages int          `json:"total_pages"`
}

type PostService struct {
	db    *gorm.DB
	store storage.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewPostService(db *gorm.DB, store storage.Store, log *logger.Logger) *PostService {
	return &PostService{
		db:    db,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

func (s *PostService) CreatePost(ctx context.Context, title, content, author string, files []FileUpload) (uint64, error) {
	var saved []string
	post := &model.Post{
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&rdb.PostRepository{DB: tx}).Create(ctx, post); err != nil {
			return translate(err, "create post")
		}
		if err := s.attach(ctx, tx, post.ID, files, &saved); err != nil {
			return err
		}
		return (&rdb.OutboxRepository{DB: tx}).Insert(ctx, model.EventPostCreated, post.ID, map[string]any{
			"author":      author,
			"attachments": len(saved),
		})
	})
	if err != nil {
		s.discard(ctx, saved)
		return 0, err
	}
	return post.ID, nil
}

// GetPost 只读，浏览量由 IncrementViews 单独累加
func (s *PostService) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	post, err := (&rdb.PostRepository{DB: s.db}).FindDetail(ctx, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("post %d", id))
	}
	return post, nil
}

// IncrementViews 读-改-写，并发访问时可能丢失计数
func (s *PostService) IncrementViews(ctx context.Context, post *model.Post) error {
	views := post.Views + 1
	if err := (&rdb.PostRepository{DB: s.db}).SetViews(ctx, post.ID, views); err != nil {
		return translate(err, "increment views")
	}
	post.Views = views
	return nil
}

// UpdatePost 顺序：标题/内容 → 删除附件 → 新增附件
func (s *PostService) UpdatePost(ctx context.Context, id uint64, title, content string, deleteAttachmentIDs []uint64, files []FileUpload) error {
	var saved, removed []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := &rdb.PostRepository{DB: tx}
		atts := &rdb.AttachmentRepository{DB: tx}

		if _, err := posts.FindByID(ctx, id); err != nil {
			return translate(err, fmt.Sprintf("post %d", id))
		}
		if err := posts.UpdateContent(ctx, id, title, content, s.now()); err != nil {
			return translate(err, "update post")
		}

		for _, attID := range deleteAttachmentIDs {
			a, err := atts.FindByID(ctx, attID)
			if err != nil {
				return translate(err, fmt.Sprintf("attachment %d", attID))
			}
			if a.PostID != id {
				return fmt.Errorf("attachment %d of post %d: %w", attID, id, pkg.ErrNotFound)
			}
			if err := atts.Delete(ctx, attID); err != nil {
				return translate(err, "delete attachment")
			}
			removed = append(removed, a.SavedName)
		}

		if err := s.attach(ctx, tx, id, files, &saved); err != nil {
			return err
		}
		return (&rdb.OutboxRepository{DB: tx}).Insert(ctx, model.EventPostUpdated, id, map[string]any{
			"removed": len(removed),
			"added":   len(saved),
		})
	})
	if err != nil {
		s.discard(ctx, saved)
		return err
	}
	s.discard(ctx, removed)
	return nil
}

// DeletePost 显式级联：评论 → 附件 → 帖子，提交后再删文件
func (s *PostService) DeletePost(ctx context.Context, id uint64) error {
	var files []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := &rdb.PostRepository{DB: tx}
		atts := &rdb.AttachmentRepository{DB: tx}

		post, err := posts.FindByID(ctx, id)
		if err != nil {
			return translate(err, fmt.Sprintf("post %d", id))
		}
		list, err := atts.ListByPost(ctx, id)
		if err != nil {
			return translate(err, "list attachments")
		}
		for _, a := range list {
			files = append(files, a.SavedName)
		}

		if err := (&rdb.CommentRepository{DB: tx}).DeleteByPost(ctx, id); err != nil {
			return translate(err, "delete comments")
		}
		if err := atts.DeleteByPost(ctx, id); err != nil {
			return translate(err, "delete attachments")
		}
		if err := posts.Delete(ctx, id); err != nil {
			return translate(err, "delete post")
		}
		return (&rdb.OutboxRepository{DB: tx}).Insert(ctx, model.EventPostDeleted, id, map[string]any{
			"author": post.Author,
		})
	})
	if err != nil {
		return err
	}
	s.discard(ctx, files)
	return nil
}

func (s *PostService) SaveComment(ctx context.Context, postID uint64, author, content string) (uint64, error) {
	c := &model.Comment{
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&rdb.PostRepository{DB: tx}).FindByID(ctx, postID); err != nil {
			return translate(err, fmt.Sprintf("post %d", postID))
		}
		if err := (&rdb.CommentRepository{DB: tx}).Create(ctx, c); err != nil {
			return translate(err, "create comment")
		}
		return (&rdb.OutboxRepository{DB: tx}).Insert(ctx, model.EventCommentCreated, postID, map[string]any{
			"comment_id": c.ID,
			"author":     author,
		})
	})
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (s *PostService) GetComment(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := (&rdb.CommentRepository{DB: s.db}).FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("comment %d", id))
	}
	return c, nil
}

func (s *PostService) UpdateComment(ctx context.Context, id uint64, content string) error {
	repo := &rdb.CommentRepository{DB: s.db}
	if _, err := repo.FindByID(ctx, id); err != nil {
		return translate(err, fmt.Sprintf("comment %d", id))
	}
	return translate(repo.UpdateContent(ctx, id, content), "update comment")
}

func (s *PostService) DeleteComment(ctx context.Context, id uint64) error {
	n, err := (&rdb.CommentRepository{DB: s.db}).Delete(ctx, id)
	if err != nil {
		return translate(err, "delete comment")
	}
	if n == 0 {
		return fmt.Errorf("comment %d: %w", id, pkg.ErrNotFound)
	}
	return nil
}

// ListPosts 页码从 0 开始，最新优先
func (s *PostService) ListPosts(ctx context.Context, page, size int) (*Page, error) {
	if page < 0 || size <= 0 {
		return nil, fmt.Errorf("page %d size %d: %w", page, size, pkg.ErrInvalidArgument)
	}
	repo := &rdb.PostRepository{DB: s.db}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, translate(err, "count posts")
	}
	items, err := repo.List(ctx, page*size, size)
	if err != nil {
		return nil, translate(err, "list posts")
	}
	return &Page{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// attach 保存文件并写入附件行；saved 记录已落盘的名字，失败时由调用方清理
func (s *PostService) attach(ctx context.Context, tx *gorm.DB, postID uint64, files []FileUpload, saved *[]string) error {
	atts := &rdb.AttachmentRepository{DB: tx}
	for _, f := range files {
		if f.Size == 0 {
			continue
		}
		name, err := s.save(ctx, f)
		if err != nil {
			return err
		}
		*saved = append(*saved, name)

		if err := atts.Create(ctx, &model.Attachment{
			PostID:       postID,
			SavedName:    name,
			OriginalName: f.Name,
		}); err != nil {
			return translate(err, "create attachment")
		}
	}
	return nil
}

func (s *PostService) save(ctx context.Context, f FileUpload) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("file %q has no content: %w", f.Name, pkg.ErrInvalidArgument)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w: %w", f.Name, pkg.ErrStorage, err)
	}
	defer rc.Close()

	name, err := s.store.Save(ctx, rc, f.Size, f.Name)
	if err != nil {
		if errors.Is(err, pkg.ErrStorage) || errors.Is(err, pkg.ErrInvalidArgument) {
			return "", fmt.Errorf("save %q: %w", f.Name, err)
		}
		return "", fmt.Errorf("save %q: %w: %w", f.Name, pkg.ErrStorage, err)
	}
	return name, nil
}

// discard 尽力删除文件，失败只记录日志
func (s *PostService) discard(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.store.Delete(ctx, name); err != nil {
			s.log.WithContext(ctx).Warn("attachment file delete failed",
				zap.String("stored_name", name), zap.Error(err))
		}
	}
}
