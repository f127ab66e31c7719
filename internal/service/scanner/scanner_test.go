package scanner

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLister 模拟数据库的 (ctime, id) 游标查询
type memoryLister struct {
	members []domain.Member
	calls   int
	err     error
}

func newMemoryLister(n int) *memoryLister {
	base := time.UnixMilli(1700000000000)
	members := make([]domain.Member, 0, n)
	for i := 1; i <= n; i++ {
		// 每十个会员共享同一个创建时间，靠 ID 打破平局
		members = append(members, domain.Member{
			ID:    int64(i),
			Ctime: base.Add(time.Duration(i/10) * time.Millisecond),
		})
	}
	sort.Slice(members, func(i, j int) bool {
		ci, cj := members[i].Ctime.UnixMilli(), members[j].Ctime.UnixMilli()
		if ci != cj {
			return ci < cj
		}
		return members[i].ID < members[j].ID
	})
	return &memoryLister{members: members}
}

func (l *memoryLister) ListAfter(_ context.Context, cursor domain.MemberCursor, filter domain.MemberFilter, limit int) ([]domain.Member, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	res := make([]domain.Member, 0, limit)
	for _, m := range l.members {
		ctime := m.Ctime.UnixMilli()
		if ctime < cursor.Ctime || (ctime == cursor.Ctime && m.ID <= cursor.ID) {
			continue
		}
		if filter.WithDeviceTokensOnly && !m.HasDeviceTokens() {
			continue
		}
		res = append(res, m)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		total     int
		pageSize  int
		wantPages []int
	}{
		{name: "1200个会员每页500", total: 1200, pageSize: 500, wantPages: []int{500, 500, 200}},
		{name: "恰好整页", total: 1000, pageSize: 500, wantPages: []int{500, 500}},
		{name: "不足一页", total: 3, pageSize: 500, wantPages: []int{3}},
		{name: "没有会员不回调", total: 0, pageSize: 500, wantPages: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lister := newMemoryLister(tc.total)
			s := NewScanner(lister)

			var pages []int
			seen := make(map[int64]struct{}, tc.total)
			err := s.Scan(context.Background(), domain.MemberFilter{}, tc.pageSize,
				func(_ context.Context, members []domain.Member, pageNumber int) error {
					assert.Equal(t, len(pages)+1, pageNumber)
					pages = append(pages, len(members))
					for _, m := range members {
						_, dup := seen[m.ID]
						assert.False(t, dup, "会员 %d 重复", m.ID)
						seen[m.ID] = struct{}{}
					}
					return nil
				})
			require.NoError(t, err)
			assert.Equal(t, tc.wantPages, pages)
			assert.Len(t, seen, tc.total)
		})
	}
}

func TestScanner_ScanAbort(t *testing.T) {
	t.Parallel()

	t.Run("回调出错立即终止", func(t *testing.T) {
		t.Parallel()
		lister := newMemoryLister(1200)
		pageErr := errors.New("page failed")
		var called int
		err := NewScanner(lister).Scan(context.Background(), domain.MemberFilter{}, 500,
			func(_ context.Context, _ []domain.Member, _ int) error {
				called++
				return pageErr
			})
		assert.ErrorIs(t, err, pageErr)
		assert.Equal(t, 1, called)
		assert.Equal(t, 1, lister.calls)
	})

	t.Run("存储出错向上传播", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("db down")
		lister := &memoryLister{err: dbErr}
		err := NewScanner(lister).Scan(context.Background(), domain.MemberFilter{}, 500,
			func(context.Context, []domain.Member, int) error { return nil })
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("非法分页大小", func(t *testing.T) {
		t.Parallel()
		err := NewScanner(newMemoryLister(1)).Scan(context.Background(), domain.MemberFilter{}, 0,
			func(context.Context, []domain.Member, int) error { return nil })
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
	})
}
