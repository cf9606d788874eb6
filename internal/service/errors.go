package service

import (
	"errors"
	"fmt"

	"Bulletin_Board/internal/pkg"

	"gorm.io/gorm"
)

// translate 把 gorm 错误映射为统一的业务错误
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, pkg.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, pkg.ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
