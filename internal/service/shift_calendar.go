package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/schedule"
)

// ── 排班日历 ────────────────────────────────────────────────
//
// 台账按日展开规则：
//   1. 当天的单日记录优先
//   2. 否则取开始日期最近的覆盖区间记录；记录状态为 OFF 时整段休息，
//      带工作日模式时按星期判断 WORK/OFF，无模式时沿用记录状态
//   3. 都没有则当天不出现在日历中
// ─────────────────────────────────────────────────────────────

// DayStatus 某日的有效排班
type DayStatus struct {
	Date        time.Time
	Status      model.ShiftStatus
	RecordID    string
	WorkPattern *model.WorkPattern
}

// ResolveDays 将 [from, to] 内的台账记录展开为逐日状态，records 需按开始日期升序
func ResolveDays(records []model.ShiftRecord, from, to time.Time, logger *zap.Logger) []DayStatus {
	from, to = schedule.DateOnly(from), schedule.DateOnly(to)

	singles := make(map[time.Time]*model.ShiftRecord)
	var ranges []*model.ShiftRecord
	patterns := make(map[string]schedule.Pattern)
	for i := range records {
		rec := &records[i]
		if isSingleDayAt(rec, rec.StartDate) {
			singles[schedule.DateOnly(rec.StartDate)] = rec
			continue
		}
		ranges = append(ranges, rec)
		p, err := schedule.Decode(rec.WeeklyPattern, rec.LegacyWorkdays)
		if err != nil {
			logger.Warn("排班模式无法解析，按记录状态处理",
				zap.String("record_id", rec.ShiftRecordID), zap.Error(err))
			continue
		}
		if p != nil {
			patterns[rec.ShiftRecordID] = p
		}
	}

	var out []DayStatus
	for d := from; !d.After(to); d = schedule.AddDays(d, 1) {
		if rec, ok := singles[d]; ok {
			out = append(out, DayStatus{Date: d, Status: rec.Status, RecordID: rec.ShiftRecordID, WorkPattern: rec.WorkPattern})
			continue
		}

		var cover *model.ShiftRecord
		for _, rec := range ranges {
			if rec.Covers(d) {
				cover = rec
			}
		}
		if cover == nil {
			continue
		}

		status := cover.Status
		if p, ok := patterns[cover.ShiftRecordID]; ok && status == model.ShiftWork && !workdayOf(p, d) {
			status = model.ShiftOff
		}
		out = append(out, DayStatus{Date: d, Status: status, RecordID: cover.ShiftRecordID, WorkPattern: cover.WorkPattern})
	}
	return out
}

func workdayOf(p schedule.Pattern, d time.Time) bool {
	if wp, ok := p.(schedule.WeeklyPattern); ok {
		return wp.Covers(d)
	}
	for _, wd := range p.Workdays() {
		if wd == d.Weekday() {
			return true
		}
	}
	return false
}

// RenderCalendar 每天一个全天事件
func RenderCalendar(userID string, days []DayStatus, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//E-HRM//Shift Ledger//ID")
	cal.SetXWRCalName("Jadwal kerja")

	for _, day := range days {
		date := day.Date.Format(schedule.DateLayout)
		ev := cal.AddEvent(fmt.Sprintf("shift-%s-%s@e-hrm", userID, date))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(day.Date)
		ev.SetAllDayEndAt(schedule.AddDays(day.Date, 1))
		ev.SetSummary(daySummary(day))
		ev.SetProperty(ics.ComponentPropertyCategories, string(day.Status))
		if day.RecordID != "" {
			ev.SetDescription("shift_record_id: " + day.RecordID)
		}
	}
	return []byte(cal.Serialize())
}

func daySummary(day DayStatus) string {
	if day.Status == model.ShiftOff {
		return "Libur"
	}
	if wp := day.WorkPattern; wp != nil {
		return fmt.Sprintf("Kerja %s-%s (%s)", wp.StartTime, wp.EndTime, wp.Name)
	}
	return "Kerja"
}
