package cache

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/push-scheduler/internal/domain"
)

const (
	ContentPrefix = "content"
)

var ErrorKeyNotFound = errors.New("key not found")

// ContentCache 每日内容缓存
type ContentCache interface {
	Get(ctx context.Context, date domain.LocalDate) (domain.ContentUnit, error)
	Set(ctx context.Context, c domain.ContentUnit) error
}

func ContentKey(date domain.LocalDate) string {
	return fmt.Sprintf("%s:%s", ContentPrefix, date.String())
}
