package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"Bulletin_Board/internal/middleware"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc               *service.PostService
	pageSize          int
	commentOwnerCheck bool
}

func NewPostHandler(svc *service.PostService, pageSize int, commentOwnerCheck bool) *PostHandler {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &PostHandler{svc: svc, pageSize: pageSize, commentOwnerCheck: commentOwnerCheck}
}

// List 帖子列表，页码从 0 开始
func (h *PostHandler) List(c *gin.Context) {
	page := 0
	if s := c.Query("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid page"})
			return
		}
		page = v
	}

	result, err := h.svc.ListPosts(c.Request.Context(), page, h.pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail 帖子详情，每次访问浏览量 +1
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	post, err := h.svc.GetPost(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.IncrementViews(ctx, post); err != nil {
		respondError(c, err)
		return
	}

	p := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"post":       post,
		"can_modify": service.CanModify(p.Username, post.Author),
	})
}

// Create 发帖接口（multipart: title, content, newFiles）
func (h *PostHandler) Create(c *gin.Context) {
	title, content, ok := postFields(c)
	if !ok {
		return
	}
	files, err := uploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	id, err := h.svc.CreatePost(c.Request.Context(), title, content, middleware.PrincipalFrom(c).Username, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// EditForm 编辑页数据，仅作者或 admin 可见
func (h *PostHandler) EditForm(c *gin.Context) {
	post, ok := h.modifiable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          post.ID,
		"title":       post.Title,
		"content":     post.Content,
		"attachments": post.Attachments,
	})
}

// Edit 编辑接口（multipart: title, content, deleteAttachmentIds, newFiles）
func (h *PostHandler) Edit(c *gin.Context) {
	post, ok := h.modifiable(c)
	if !ok {
		return
	}
	title, content, ok := postFields(c)
	if !ok {
		return
	}

	var deleteIDs []uint64
	for _, s := range c.PostFormArray("deleteAttachmentIds") {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid deleteAttachmentIds"})
			return
		}
		deleteIDs = append(deleteIDs, v)
	}
	files, err := uploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	if err := h.svc.UpdatePost(c.Request.Context(), post.ID, title, content, deleteIDs, files); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "id": post.ID})
}

func (h *PostHandler) Delete(c *gin.Context) {
	post, ok := h.modifiable(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), post.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// AddComment 无论成功与否都跳回帖子详情，帖子 id 非法时回到列表
func (h *PostHandler) AddComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Redirect(http.StatusSeeOther, "/postlist")
		return
	}
	defer redirectToPost(c, id)

	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		return
	}
	if _, err := h.svc.SaveComment(c.Request.Context(), id, middleware.PrincipalFrom(c).Username, content); err != nil {
		c.Error(err)
	}
}

func (h *PostHandler) UpdateComment(c *gin.Context) {
	postID, commentID, ok := h.commentAccess(c)
	if !ok {
		return
	}
	content := strings.TrimSpace(c.PostForm("content"))
	if content != "" {
		if err := h.svc.UpdateComment(c.Request.Context(), commentID, content); err != nil {
			c.Error(err)
		}
	}
	redirectToPost(c, postID)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	postID, commentID, ok := h.commentAccess(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), commentID); err != nil {
		c.Error(err)
	}
	redirectToPost(c, postID)
}

// modifiable 读取帖子并校验 CanModify
func (h *PostHandler) modifiable(c *gin.Context) (*model.Post, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !service.CanModify(middleware.PrincipalFrom(c).Username, post.Author) {
		c.JSON(http.StatusForbidden, gin.H{"msg": "not the author"})
		return nil, false
	}
	return post, true
}

// commentAccess 评论归属校验由配置开关决定
func (h *PostHandler) commentAccess(c *gin.Context) (uint64, uint64, bool) {
	postID, ok := parseID(c, "id")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return 0, 0, false
	}
	if h.commentOwnerCheck {
		comment, err := h.svc.GetComment(c.Request.Context(), commentID)
		if err != nil {
			respondError(c, err)
			return 0, 0, false
		}
		if !service.CanModify(middleware.PrincipalFrom(c).Username, comment.Author) {
			c.JSON(http.StatusForbidden, gin.H{"msg": "not the author"})
			return 0, 0, false
		}
	}
	return postID, commentID, true
}

func redirectToPost(c *gin.Context, id uint64) {
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/postlist/%d", id))
}

func postFields(c *gin.Context) (string, string, bool) {
	title := strings.TrimSpace(c.PostForm("title"))
	content := strings.TrimSpace(c.PostForm("content"))
	if title == "" || content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "title and content are required"})
		return "", "", false
	}
	return title, content, true
}

// uploads 把 multipart 文件转换为服务层入参；非 multipart 请求视为无文件
func uploads(c *gin.Context) ([]service.FileUpload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	var files []service.FileUpload
	for _, fh := range form.File["newFiles"] {
		files = append(files, fromHeader(fh))
	}
	return files, nil
}

func fromHeader(fh *multipart.FileHeader) service.FileUpload {
	return service.FileUpload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
