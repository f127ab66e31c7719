package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/ego-component/egorm"
)

// Content 每日内容表，一天一条
type Content struct {
	ID    int64          `gorm:"primaryKey;autoIncrement;type:BIGINT"`
	Date  string         `gorm:"type:CHAR(10);NOT NULL;uniqueIndex:uk_date;comment:'内容所属日期 YYYY-MM-DD'"`
	Title string         `gorm:"type:VARCHAR(256);NOT NULL"`
	Body  string         `gorm:"type:TEXT;NOT NULL"`
	Data  sql.NullString `gorm:"type:JSON;comment:'透传给客户端的数据'"`
	Ctime int64
	Utime int64
}

// TableName 重命名表
func (Content) TableName() string {
	return "contents"
}

type ContentDAO interface {
	FindByDate(ctx context.Context, date string) (Content, error)
	Save(ctx context.Context, c Content) (Content, error)
}

type contentDAO struct {
	db *egorm.Component
}

// NewContentDAO 创建每日内容DAO实例
func NewContentDAO(db *egorm.Component) ContentDAO {
	return &contentDAO{db: db}
}

func (d *contentDAO) FindByDate(ctx context.Context, date string) (Content, error) {
	var c Content
	err := d.db.WithContext(ctx).Where("date = ?", date).First(&c).Error
	return c, err
}

func (d *contentDAO) Save(ctx context.Context, c Content) (Content, error) {
	now := time.Now().UnixMilli()
	if c.Ctime == 0 {
		c.Ctime = now
	}
	c.Utime = now
	err := d.db.WithContext(ctx).Save(&c).Error
	return c, err
}
