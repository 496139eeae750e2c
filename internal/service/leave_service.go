package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/schedule"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// maxLeaveDays 单次请假最多展开的天数
const maxLeaveDays = 366

// LeaveService 请假申请服务
type LeaveService = SubmissionService[model.LeaveRequest, dto.CreateLeaveRequest, dto.UpdateLeaveRequest]

func leaveSpec() kindSpec[model.LeaveRequest, dto.CreateLeaveRequest, dto.UpdateLeaveRequest] {
	return kindSpec[model.LeaveRequest, dto.CreateLeaveRequest, dto.UpdateLeaveRequest]{
		kind:       model.KindLeave,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.LeaveRequest] { return r.Leave },
		createBase: func(req *dto.CreateLeaveRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdateLeaveRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build:      buildLeave,
		patch:      patchLeave,
	}
}

func buildLeave(ctx context.Context, tx *repository.Repository, req *dto.CreateLeaveRequest, ownerID string) (*model.LeaveRequest, error) {
	if err := ensureLeaveCategory(ctx, tx, req.CategoryID); err != nil {
		return nil, err
	}

	dates, err := leaveDates(req.Dates, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	returnDate, err := parseOptionalDate(req.ReturnDate, "return_date")
	if err != nil {
		return nil, err
	}
	if err := checkReturnDate(dates, returnDate); err != nil {
		return nil, err
	}

	return &model.LeaveRequest{
		UserID:        ownerID,
		CategoryID:    req.CategoryID,
		StartDate:     dates[0],
		EndDate:       dates[len(dates)-1],
		Dates:         dates,
		ReturnDate:    returnDate,
		Reason:        strings.TrimSpace(req.Reason),
		AttachmentURL: trimmed(req.AttachmentURL),
	}, nil
}

func patchLeave(ctx context.Context, tx *repository.Repository, cur *model.LeaveRequest, req *dto.UpdateLeaveRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if req.CategoryID != nil && *req.CategoryID != cur.CategoryID {
		if err := ensureLeaveCategory(ctx, tx, *req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}

	dates := cur.Dates.Normalize()
	if req.Dates != nil {
		parsed, err := leaveDates(*req.Dates, "", "")
		if err != nil {
			return nil, err
		}
		dates = parsed
		fields["dates"] = dates
		fields["start_date"] = dates[0]
		fields["end_date"] = dates[len(dates)-1]
	}

	returnDate := cur.ReturnDate
	if req.ReturnDate != nil {
		if strings.TrimSpace(*req.ReturnDate) == "" {
			returnDate = nil
		} else {
			parsed, err := parseOptionalDate(req.ReturnDate, "return_date")
			if err != nil {
				return nil, err
			}
			returnDate = parsed
		}
		fields["return_date"] = returnDate
	}
	if req.Dates != nil || req.ReturnDate != nil {
		if err := checkReturnDate(dates, returnDate); err != nil {
			return nil, err
		}
	}

	if req.Reason != nil {
		fields["reason"] = strings.TrimSpace(*req.Reason)
	}
	return fields, nil
}

func ensureLeaveCategory(ctx context.Context, tx *repository.Repository, id string) error {
	if _, err := tx.LeaveCategory.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLeaveCategoryNotFound
		}
		return pkgerrors.Internal("查询请假类别", err)
	}
	return nil
}

// leaveDates 解析请假日期：显式列表优先，否则按起止日期逐日展开
func leaveDates(raw []string, start, end string) (model.DateList, error) {
	if len(raw) > 0 {
		var details []pkgerrors.Detail
		out := make(model.DateList, 0, len(raw))
		for i, s := range raw {
			d, ok := schedule.ParseDate(s)
			if !ok {
				details = append(details, pkgerrors.Detail{Index: i, Field: "dates", Message: fmt.Sprintf("无法解析日期 %q", s)})
				continue
			}
			out = append(out, d)
		}
		if len(details) > 0 {
			return nil, ErrLeaveDatesInvalid.WithDetails(details...)
		}
		out = out.Normalize()
		if len(out) > maxLeaveDays {
			return nil, ErrLeaveDatesInvalid.WithMessage("单次请假不能超过 %d 天", maxLeaveDays)
		}
		return out, nil
	}

	from, ok := schedule.ParseDate(start)
	if !ok {
		return nil, ErrLeaveDatesInvalid.WithMessage("请提供 dates 或有效的 start_date")
	}
	to := from
	if strings.TrimSpace(end) != "" {
		if to, ok = schedule.ParseDate(end); !ok {
			return nil, ErrLeaveDatesInvalid.WithMessage("end_date 格式无效")
		}
	}
	if to.Before(from) {
		return nil, ErrLeaveDatesInvalid.WithMessage("结束日期不能早于开始日期")
	}
	if to.Sub(from) >= maxLeaveDays*24*time.Hour {
		return nil, ErrLeaveDatesInvalid.WithMessage("单次请假不能超过 %d 天", maxLeaveDays)
	}

	var out model.DateList
	for d := from; !d.After(to); d = schedule.AddDays(d, 1) {
		out = append(out, d)
	}
	return out, nil
}

func checkReturnDate(dates model.DateList, returnDate *time.Time) error {
	if returnDate == nil || len(dates) == 0 {
		return nil
	}
	if !returnDate.After(dates[len(dates)-1]) {
		return ErrReturnDateInvalid
	}
	for _, d := range dates {
		if d.Equal(*returnDate) {
			return ErrReturnDateInvalid
		}
	}
	return nil
}

// parseOptionalDate 空值返回 nil
func parseOptionalDate(s *string, field string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, ok := schedule.ParseDate(*s)
	if !ok {
		return nil, invalidParam(field, fmt.Sprintf("%s 格式应为 YYYY-MM-DD", field))
	}
	return &d, nil
}

// parseRequiredDate 必填日期
func parseRequiredDate(s, field string, base *pkgerrors.AppError) (time.Time, error) {
	d, ok := schedule.ParseDate(s)
	if !ok {
		return time.Time{}, base.WithDetails(pkgerrors.Detail{Field: field, Message: "格式应为 YYYY-MM-DD"})
	}
	return d, nil
}
