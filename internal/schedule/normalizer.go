package schedule

import (
	"sort"
	"strings"
	"time"

	pkgerrors "e-hrm/backend/pkg/errors"
)

// PatternTypeWeekly 唯一支持的排班模式类型
const PatternTypeWeekly = "weekly"

// ErrInvalidPattern 每周排班模式无法归一化
var ErrInvalidPattern = pkgerrors.New(pkgerrors.ErrValidation, 31001, "每周排班模式无效")

// PatternInput 客户端提交的每周排班模式，Type 为空时视为 weekly
type PatternInput struct {
	Type      string        `json:"type"`
	Days      []interface{} `json:"days"`
	StartDate *string       `json:"start_date"`
	EndDate   *string       `json:"end_date"`
}

// Occurrence 单个星期在区间内的首次/末次出现
type Occurrence struct {
	Weekday time.Weekday `json:"weekday"`
	First   time.Time    `json:"first"`
	Last    *time.Time   `json:"last,omitempty"`
}

// Week 周一开始的 7 天窗口
type Week struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Normalized 归一化结果，日期均为 UTC 零点
type Normalized struct {
	Weekdays      []time.Weekday `json:"weekdays"`
	Occurrences   []Occurrence   `json:"occurrences"`
	Dates         []time.Time    `json:"dates,omitempty"` // 仅有结束日期时列出全部具体日期
	StartDate     time.Time      `json:"start_date"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	DerivedStart  time.Time      `json:"derived_start"`
	DerivedEnd    *time.Time     `json:"derived_end,omitempty"` // nil 表示长期循环
	ReferenceWeek Week           `json:"reference_week"`
}

// Normalize 将每周排班模式展开为具体日期
//
// 模式自带的起止日期优先，缺省时使用调用方给出的 fallback。
func Normalize(in PatternInput, fallbackStart, fallbackEnd *time.Time) (*Normalized, error) {
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if typ != "" && typ != PatternTypeWeekly {
		return nil, ErrInvalidPattern.WithMessage("不支持的排班模式类型: %s", in.Type)
	}

	start, ok, err := resolveDate(in.StartDate, fallbackStart, "start_date")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidPattern.WithMessage("缺少开始日期")
	}
	end, hasEnd, err := resolveDate(in.EndDate, fallbackEnd, "end_date")
	if err != nil {
		return nil, err
	}
	if hasEnd && end.Before(start) {
		return nil, ErrInvalidPattern.WithMessage("结束日期不能早于开始日期")
	}

	if len(in.Days) == 0 {
		return nil, ErrInvalidPattern.WithMessage("工作日列表不能为空")
	}
	weekdays := ParseWeekdays(in.Days)
	if len(weekdays) == 0 {
		return nil, ErrInvalidPattern.WithMessage("工作日列表无法解析")
	}

	out := &Normalized{
		Weekdays:  weekdays,
		StartDate: start,
	}
	if hasEnd {
		e := end
		out.EndDate = &e
	}

	var derivedEnd time.Time
	for i, wd := range weekdays {
		first := AddDays(start, (int(wd)-int(start.Weekday())+7)%7)
		occ := Occurrence{Weekday: wd, First: first}

		if hasEnd {
			last := AddDays(end, -((int(end.Weekday())-int(wd)+7)%7))
			if last.Before(first) {
				return nil, ErrInvalidPattern.WithMessage("%s 在所选日期区间内没有出现", wd)
			}
			occ.Last = &last
			if last.After(derivedEnd) {
				derivedEnd = last
			}
			for d := first; !d.After(last); d = AddDays(d, 7) {
				out.Dates = append(out.Dates, d)
			}
		}

		if i == 0 || first.Before(out.DerivedStart) {
			out.DerivedStart = first
		}
		out.Occurrences = append(out.Occurrences, occ)
	}

	if hasEnd {
		out.DerivedEnd = &derivedEnd
		sort.Slice(out.Dates, func(i, j int) bool { return out.Dates[i].Before(out.Dates[j]) })
	}

	weekStart := WeekStart(out.DerivedStart)
	out.ReferenceWeek = Week{Start: weekStart, End: AddDays(weekStart, 6)}

	return out, nil
}

// Pattern 归一化结果对应的存储模式
func (n *Normalized) Pattern() WeeklyPattern {
	return WeeklyPattern{
		Weekdays:  append([]time.Weekday(nil), n.Weekdays...),
		StartDate: n.DerivedStart,
		EndDate:   n.DerivedEnd,
	}
}

// resolveDate 优先使用模式中的日期；提供了但无法解析时报错
func resolveDate(explicit *string, fallback *time.Time, field string) (time.Time, bool, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		t, ok := ParseDate(*explicit)
		if !ok {
			return time.Time{}, false, ErrInvalidPattern.WithMessage("%s 日期格式无效: %s", field, *explicit)
		}
		return t, true, nil
	}
	if fallback != nil && !fallback.IsZero() {
		return DateOnly(*fallback), true, nil
	}
	return time.Time{}, false, nil
}
