package domain

import (
	"fmt"
	"time"
)

// LocalDate 会员本地的日历日期
type LocalDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func LocalDateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ContentUnit 某一天要下发的内容，对核心逻辑来说只是 ID 加标题正文
type ContentUnit struct {
	ID    int64
	Date  LocalDate
	Title string
	Body  string
	Data  map[string]string
}

// PushPayload 推送给设备的载荷
type PushPayload struct {
	Title string
	Body  string
	Data  map[string]string
}

func (c ContentUnit) Payload() PushPayload {
	data := make(map[string]string, len(c.Data)+2)
	for k, v := range c.Data {
		data[k] = v
	}
	data["contentId"] = fmt.Sprintf("%d", c.ID)
	data["date"] = c.Date.String()
	return PushPayload{
		Title: c.Title,
		Body:  c.Body,
		Data:  data,
	}
}
