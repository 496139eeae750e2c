package schedule

import (
	"strings"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// DateOnly 丢弃时分秒，按日历日归一为 UTC 零点
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD 或 RFC3339，返回 UTC 零点
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOnly(t), true
	}
	return time.Time{}, false
}

// AddDays 按日历日偏移
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// MonthLabel 月份标签 YYYY-MM
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// WeekStart 包含 t 的周一
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return AddDays(d, -offset)
}
