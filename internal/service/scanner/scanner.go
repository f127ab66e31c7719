package scanner

import (
	"context"
	"fmt"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"github.com/gotomicro/ego/core/elog"
)

// PageFunc 处理一页会员，返回错误会终止整个扫描
type PageFunc func(ctx context.Context, members []domain.Member, pageNumber int) error

// MemberLister 会员存储需要提供的游标分页能力
type MemberLister interface {
	ListAfter(ctx context.Context, cursor domain.MemberCursor, filter domain.MemberFilter, limit int) ([]domain.Member, error)
}

// Scanner 按 (Ctime, ID) 游标分批扫描全部会员，同一时刻只有一页在内存中
type Scanner interface {
	Scan(ctx context.Context, filter domain.MemberFilter, pageSize int, onPage PageFunc) error
}

type scanner struct {
	members MemberLister
	logger  *elog.Component
}

func NewScanner(members MemberLister) Scanner {
	return &scanner{
		members: members,
		logger:  elog.DefaultLogger,
	}
}

func (s *scanner) Scan(ctx context.Context, filter domain.MemberFilter, pageSize int, onPage PageFunc) error {
	if pageSize <= 0 {
		return fmt.Errorf("%w: pageSize = %d", errs.ErrInvalidParameter, pageSize)
	}
	var cursor domain.MemberCursor
	for pageNumber := 1; ; pageNumber++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		members, err := s.members.ListAfter(ctx, cursor, filter, pageSize)
		if err != nil {
			return fmt.Errorf("查询第 %d 页会员失败: %w", pageNumber, err)
		}
		if len(members) == 0 {
			return nil
		}
		if err = onPage(ctx, members, pageNumber); err != nil {
			return fmt.Errorf("处理第 %d 页会员失败: %w", pageNumber, err)
		}
		s.logger.Debug("会员分页处理完成",
			elog.Int("page", pageNumber),
			elog.Int("size", len(members)))
		if len(members) < pageSize {
			return nil
		}
		cursor = cursor.Next(members[len(members)-1])
	}
}
