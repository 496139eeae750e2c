package schedule

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// 英文全称/缩写与印尼语星期名
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,

	"minggu": time.Sunday, "ahad": time.Sunday,
	"senin":  time.Monday,
	"selasa": time.Tuesday,
	"rabu":   time.Wednesday,
	"kamis":  time.Thursday,
	"jumat":  time.Friday, "jum'at": time.Friday,
	"sabtu": time.Saturday,
}

// 结构化 token 中承载星期值的字段，按顺序尝试
var weekdayObjectKeys = []string{"day", "weekday", "value"}

// ParseWeekday 解析单个星期 token
//
// 数字 0-6 与 1-7 两种约定都接受（0 与 7 均为周日），
// 字符串支持英文名/缩写、印尼语名，对象取 day / weekday / value 字段。
func ParseWeekday(token interface{}) (time.Weekday, bool) {
	switch v := token.(type) {
	case time.Weekday:
		return v, v >= time.Sunday && v <= time.Saturday
	case int:
		return weekdayFromNumber(v)
	case int64:
		return weekdayFromNumber(int(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return weekdayFromNumber(int(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return weekdayFromNumber(int(n))
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if n, err := strconv.Atoi(s); err == nil {
			return weekdayFromNumber(n)
		}
		wd, ok := weekdayNames[s]
		return wd, ok
	case map[string]interface{}:
		for _, key := range weekdayObjectKeys {
			if inner, ok := v[key]; ok {
				return ParseWeekday(inner)
			}
		}
	}
	return 0, false
}

func weekdayFromNumber(n int) (time.Weekday, bool) {
	if n < 0 || n > 7 {
		return 0, false
	}
	return time.Weekday(n % 7), true
}

// ParseWeekdays 解析 token 列表，去重并按周日..周六排序；无法解析的 token 被忽略
func ParseWeekdays(tokens []interface{}) []time.Weekday {
	var seen [7]bool
	for _, tok := range tokens {
		if wd, ok := ParseWeekday(tok); ok {
			seen[wd] = true
		}
	}
	out := make([]time.Weekday, 0, 7)
	for i, ok := range seen {
		if ok {
			out = append(out, time.Weekday(i))
		}
	}
	return out
}

// ParseLegacyWorkdays 尽力解析旧版自由文本，如 "Senin-Jumat"、"senin, rabu, jumat"
func ParseLegacyWorkdays(text string) []time.Weekday {
	normalized := strings.ToLower(text)
	normalized = strings.ReplaceAll(normalized, " - ", "-")
	normalized = strings.ReplaceAll(normalized, " s/d ", "-")
	normalized = strings.ReplaceAll(normalized, " sampai ", "-")
	normalized = strings.ReplaceAll(normalized, " to ", "-")

	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == ' ' || r == '\t' || r == '\n'
	})

	tokens := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		if from, to, ok := strings.Cut(f, "-"); ok {
			a, okA := ParseWeekday(from)
			b, okB := ParseWeekday(to)
			if !okA || !okB {
				continue
			}
			for d := a; ; d = (d + 1) % 7 {
				tokens = append(tokens, d)
				if d == b {
					break
				}
			}
			continue
		}
		tokens = append(tokens, f)
	}
	return ParseWeekdays(tokens)
}
