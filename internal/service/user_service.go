package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/repository/rdb"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenStore 单点登录：每个用户只保存最近一次签发的 access token
type TokenStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	ExtendUserToken(ctx context.Context, userID uint64) error
	DeleteUserToken(ctx context.Context, userID uint64) error
}

// UserSummary 用户列表不暴露密码哈希与角色
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserService struct {
	repo   *rdb.UserRepository
	tokens TokenStore
	issuer *pkg.TokenIssuer
	log    *logger.Logger
}

func NewUserService(db *gorm.DB, tokens TokenStore, issuer *pkg.TokenIssuer, log *logger.Logger) *UserService {
	return &UserService{
		repo:   &rdb.UserRepository{DB: db},
		tokens: tokens,
		issuer: issuer,
		log:    log,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", pkg.ErrValidation)
	}

	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, "check username")
	}
	if taken {
		return nil, fmt.Errorf("username %q: %w", username, pkg.ErrAlreadyExists)
	}
	taken, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, "check email")
	}
	if taken {
		return nil, fmt.Errorf("email %q: %w", email, pkg.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
		Role:     model.RoleFor(username),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, translate(err, "create user")
	}
	return user, nil
}

// Update 每次编辑都会重新哈希密码并写入邮箱
func (s *UserService) Update(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("email and password are required: %w", pkg.ErrValidation)
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return translate(err, fmt.Sprintf("user %q", username))
	}

	if email != user.Email {
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return translate(err, "check email")
		}
		if taken {
			return fmt.Errorf("email %q: %w", email, pkg.ErrAlreadyExists)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return translate(s.repo.UpdateCredentials(ctx, user, email, string(hash)), "update user")
}

func (s *UserService) Delete(ctx context.Context, id uint64) error {
	n, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return translate(err, "delete user")
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, pkg.ErrNotFound)
	}
	// 删除后旧 token 立即失效
	if err := s.tokens.DeleteUserToken(ctx, id); err != nil {
		s.log.WithContext(ctx).Warn("session token delete failed", zap.Uint64("user_id", id), zap.Error(err))
	}
	return nil
}

// Authenticate 只负责按用户名取出凭据，密码比对在 Login 中完成
func (s *UserService) Authenticate(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %q", username))
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]UserSummary, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, translate(err, "list users")
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return out, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.Authenticate(ctx, username)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("bad credentials: %w", pkg.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, fmt.Errorf("bad credentials: %w", pkg.ErrUnauthorized)
	}
	return s.issue(ctx, user)
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.DeleteUserToken(ctx, userID)
}

// Refresh 用 refresh token 换一对新 token，旧 access token 随之失效
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrUnauthorized, err)
	}
	user, err := s.GetByID(ctx, claims.UserID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("user %d gone: %w", claims.UserID, pkg.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *UserService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(user.ID, user.Username, user.Role.String())
	if err != nil {
		return nil, err
	}
	// 将token写入redis
	if err := s.tokens.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}
