package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Pattern 排班记录上的工作日模式：WeeklyPattern 或旧版自由文本 LegacyWorkdays
type Pattern interface {
	// Workdays 模式覆盖的星期
	Workdays() []time.Weekday
	isPattern()
}

// WeeklyPattern 结构化每周模式
type WeeklyPattern struct {
	Weekdays  []time.Weekday
	StartDate time.Time
	EndDate   *time.Time
}

func (p WeeklyPattern) Workdays() []time.Weekday { return p.Weekdays }
func (WeeklyPattern) isPattern()                  {}

// Covers 判断日期是否落在模式内
func (p WeeklyPattern) Covers(d time.Time) bool {
	d = DateOnly(d)
	if d.Before(p.StartDate) || (p.EndDate != nil && d.After(*p.EndDate)) {
		return false
	}
	for _, wd := range p.Weekdays {
		if wd == d.Weekday() {
			return true
		}
	}
	return false
}

// LegacyWorkdays 旧数据中的 hari_kerja 自由文本
type LegacyWorkdays struct {
	Raw string
}

func (p LegacyWorkdays) Workdays() []time.Weekday { return ParseLegacyWorkdays(p.Raw) }
func (LegacyWorkdays) isPattern()                  {}

// storedPattern weekly_pattern 列的 JSON 形态
type storedPattern struct {
	Type      string  `json:"type"`
	Days      []int   `json:"days"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Encode 序列化为 weekly_pattern 列内容
func (p WeeklyPattern) Encode() ([]byte, error) {
	sp := storedPattern{
		Type:      PatternTypeWeekly,
		Days:      make([]int, len(p.Weekdays)),
		StartDate: p.StartDate.Format(DateLayout),
	}
	for i, wd := range p.Weekdays {
		sp.Days[i] = int(wd)
	}
	if p.EndDate != nil {
		e := p.EndDate.Format(DateLayout)
		sp.EndDate = &e
	}
	return json.Marshal(sp)
}

// Decode 从存储列还原模式；两列都为空时返回 nil
func Decode(raw []byte, legacy *string) (Pattern, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		var sp storedPattern
		if err := json.Unmarshal(raw, &sp); err != nil {
			return nil, fmt.Errorf("解析 weekly_pattern 失败: %w", err)
		}
		if sp.Type != "" && sp.Type != PatternTypeWeekly {
			return nil, fmt.Errorf("未知的排班模式类型: %s", sp.Type)
		}
		start, ok := ParseDate(sp.StartDate)
		if !ok {
			return nil, fmt.Errorf("weekly_pattern 开始日期无效: %q", sp.StartDate)
		}
		p := WeeklyPattern{StartDate: start}
		if sp.EndDate != nil {
			end, ok := ParseDate(*sp.EndDate)
			if !ok {
				return nil, fmt.Errorf("weekly_pattern 结束日期无效: %q", *sp.EndDate)
			}
			p.EndDate = &end
		}
		tokens := make([]interface{}, len(sp.Days))
		for i, d := range sp.Days {
			tokens[i] = d
		}
		p.Weekdays = ParseWeekdays(tokens)
		return p, nil
	}

	if legacy != nil && strings.TrimSpace(*legacy) != "" {
		return LegacyWorkdays{Raw: *legacy}, nil
	}
	return nil, nil
}
