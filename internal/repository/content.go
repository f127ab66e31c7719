package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/repository/cache"
	"gitee.com/flycash/push-scheduler/internal/repository/cache/local"
	"gitee.com/flycash/push-scheduler/internal/repository/cache/redis"
	"gitee.com/flycash/push-scheduler/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
	"gorm.io/gorm"
)

// ContentRepository 每日内容仓储接口
type ContentRepository interface {
	// FindByDate 不存在时返回 errs.ErrContentNotFound
	FindByDate(ctx context.Context, date domain.LocalDate) (domain.ContentUnit, error)
	Save(ctx context.Context, c domain.ContentUnit) (domain.ContentUnit, error)
}

type contentRepository struct {
	dao        dao.ContentDAO
	localCache cache.ContentCache
	redisCache cache.ContentCache
	logger     *elog.Component
}

// NewContentRepository 创建每日内容仓储，读路径依次是本地缓存、Redis、数据库
func NewContentRepository(d dao.ContentDAO, localCache *local.Cache, redisCache *redis.Cache) ContentRepository {
	return newContentRepository(d, localCache, redisCache)
}

func newContentRepository(d dao.ContentDAO, localCache, redisCache cache.ContentCache) *contentRepository {
	return &contentRepository{
		dao:        d,
		localCache: localCache,
		redisCache: redisCache,
		logger:     elog.DefaultLogger,
	}
}

func (r *contentRepository) FindByDate(ctx context.Context, date domain.LocalDate) (domain.ContentUnit, error) {
	c, err := r.localCache.Get(ctx, date)
	if err == nil {
		return c, nil
	}
	c, err = r.redisCache.Get(ctx, date)
	if err == nil {
		_ = r.localCache.Set(ctx, c)
		return c, nil
	}
	if !errors.Is(err, cache.ErrorKeyNotFound) {
		r.logger.Warn("从Redis获取内容失败", elog.String("date", date.String()), elog.FieldErr(err))
	}

	entity, err := r.dao.FindByDate(ctx, date.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContentUnit{}, fmt.Errorf("%w: date=%s", errs.ErrContentNotFound, date)
		}
		return domain.ContentUnit{}, err
	}
	c, err = r.toDomain(entity, date)
	if err != nil {
		return domain.ContentUnit{}, err
	}
	r.fillCache(ctx, c)
	return c, nil
}

func (r *contentRepository) Save(ctx context.Context, c domain.ContentUnit) (domain.ContentUnit, error) {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return domain.ContentUnit{}, err
	}
	saved, err := r.dao.Save(ctx, dao.Content{
		ID:    c.ID,
		Date:  c.Date.String(),
		Title: c.Title,
		Body:  c.Body,
		Data:  sql.NullString{String: string(data), Valid: c.Data != nil},
	})
	if err != nil {
		return domain.ContentUnit{}, err
	}
	c.ID = saved.ID
	r.fillCache(ctx, c)
	return c, nil
}

func (r *contentRepository) fillCache(ctx context.Context, c domain.ContentUnit) {
	if err := r.redisCache.Set(ctx, c); err != nil {
		r.logger.Warn("回写Redis内容缓存失败", elog.String("date", c.Date.String()), elog.FieldErr(err))
	}
	_ = r.localCache.Set(ctx, c)
}

func (r *contentRepository) toDomain(c dao.Content, date domain.LocalDate) (domain.ContentUnit, error) {
	var data map[string]string
	if c.Data.Valid && c.Data.String != "" {
		if err := json.Unmarshal([]byte(c.Data.String), &data); err != nil {
			return domain.ContentUnit{}, fmt.Errorf("解析内容数据失败 id=%d: %w", c.ID, err)
		}
	}
	return domain.ContentUnit{
		ID:    c.ID,
		Date:  date,
		Title: c.Title,
		Body:  c.Body,
		Data:  data,
	}, nil
}
