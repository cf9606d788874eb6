package router

import (
	"Bulletin_Board/internal/handler"
	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/middleware"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/service"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Log               *logger.Logger
	Issuer            *pkg.TokenIssuer
	Tokens            service.TokenStore
	Users             *service.UserService
	Posts             *service.PostService
	Attachments       *service.AttachmentService
	PageSize          int
	CommentOwnerCheck bool
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggingMiddleware(d.Log))

	user := handler.NewUserHandler(d.Users)
	post := handler.NewPostHandler(d.Posts, d.PageSize, d.CommentOwnerCheck)
	download := handler.NewDownloadHandler(d.Attachments)
	auth := middleware.AuthMiddleware(d.Issuer, d.Tokens)

	r.GET("/health", handler.Health)

	// 登录注册
	r.GET("/login", user.LoginPage)
	r.POST("/login", user.Login)
	r.GET("/register", user.RegisterPage)
	r.POST("/register", user.Register)
	r.POST("/token/refresh", user.TokenRefresh)
	r.POST("/logout", auth, user.Logout)

	// 帖子与评论
	postGroup := r.Group("/postlist")
	postGroup.Use(auth)
	{
		postGroup.GET("", post.List)
		postGroup.POST("/new", post.Create)
		postGroup.GET("/:id", post.Detail)
		postGroup.DELETE("/:id", post.Delete)
		postGroup.GET("/edit/:id", post.EditForm)
		postGroup.POST("/edit/:id", post.Edit)
		postGroup.POST("/:id/comment", post.AddComment)
		postGroup.POST("/:id/comment/:commentId", post.UpdateComment)
		postGroup.DELETE("/:id/comment/:commentId", post.DeleteComment)
	}

	r.GET("/download", auth, download.Download)

	// 用户管理，仅 ADMIN 角色
	userGroup := r.Group("/userlist")
	userGroup.Use(auth, middleware.RequireAdmin())
	{
		userGroup.GET("", user.List)
		userGroup.GET("/:id", user.Get)
		userGroup.POST("/:id", user.Update)
		userGroup.DELETE("/:id", user.Delete)
	}

	return r
}
