package service

import (
	"context"
	"strings"
	"time"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
)

// HourPermitService 小时请假服务
type HourPermitService = SubmissionService[model.HourPermit, dto.CreateHourPermitRequest, dto.UpdateHourPermitRequest]

// DaySwapService 换休申请服务
type DaySwapService = SubmissionService[model.DaySwapRequest, dto.CreateDaySwapRequest, dto.UpdateDaySwapRequest]

// ── 小时请假 ──

func hourPermitSpec() kindSpec[model.HourPermit, dto.CreateHourPermitRequest, dto.UpdateHourPermitRequest] {
	return kindSpec[model.HourPermit, dto.CreateHourPermitRequest, dto.UpdateHourPermitRequest]{
		kind:       model.KindHourPermit,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.HourPermit] { return r.HourPermit },
		createBase: func(req *dto.CreateHourPermitRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdateHourPermitRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build:      buildHourPermit,
		patch:      patchHourPermit,
	}
}

func buildHourPermit(_ context.Context, _ *repository.Repository, req *dto.CreateHourPermitRequest, ownerID string) (*model.HourPermit, error) {
	date, err := parseRequiredDate(req.PermitDate, "permit_date", ErrPermitTimeInvalid)
	if err != nil {
		return nil, err
	}
	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	return &model.HourPermit{
		UserID:        ownerID,
		PermitDate:    date,
		StartTime:     start,
		EndTime:       end,
		Reason:        strings.TrimSpace(req.Reason),
		AttachmentURL: trimmed(req.AttachmentURL),
	}, nil
}

func patchHourPermit(_ context.Context, _ *repository.Repository, cur *model.HourPermit, req *dto.UpdateHourPermitRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if req.PermitDate != nil {
		date, err := parseRequiredDate(*req.PermitDate, "permit_date", ErrPermitTimeInvalid)
		if err != nil {
			return nil, err
		}
		fields["permit_date"] = date
	}
	if req.StartTime != nil || req.EndTime != nil {
		startRaw, endRaw := cur.StartTime, cur.EndTime
		if req.StartTime != nil {
			startRaw = *req.StartTime
		}
		if req.EndTime != nil {
			endRaw = *req.EndTime
		}
		start, end, err := clockRange(startRaw, endRaw)
		if err != nil {
			return nil, err
		}
		fields["start_time"] = start
		fields["end_time"] = end
	}
	if req.Reason != nil {
		fields["reason"] = strings.TrimSpace(*req.Reason)
	}
	return fields, nil
}

// clockRange 校验 HH:MM 时段，返回规范化后的字符串
func clockRange(startRaw, endRaw string) (string, string, error) {
	start, err := time.Parse("15:04", strings.TrimSpace(startRaw))
	if err != nil {
		return "", "", ErrPermitTimeInvalid
	}
	end, err := time.Parse("15:04", strings.TrimSpace(endRaw))
	if err != nil {
		return "", "", ErrPermitTimeInvalid
	}
	if !end.After(start) {
		return "", "", ErrPermitTimeInvalid
	}
	return start.Format("15:04"), end.Format("15:04"), nil
}

// ── 换休 ──

func daySwapSpec() kindSpec[model.DaySwapRequest, dto.CreateDaySwapRequest, dto.UpdateDaySwapRequest] {
	return kindSpec[model.DaySwapRequest, dto.CreateDaySwapRequest, dto.UpdateDaySwapRequest]{
		kind:       model.KindDaySwap,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.DaySwapRequest] { return r.DaySwap },
		createBase: func(req *dto.CreateDaySwapRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdateDaySwapRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build:      buildDaySwap,
		patch:      patchDaySwap,
	}
}

func buildDaySwap(_ context.Context, _ *repository.Repository, req *dto.CreateDaySwapRequest, ownerID string) (*model.DaySwapRequest, error) {
	givenUp, err := parseRequiredDate(req.DayGivenUp, "day_given_up", ErrSwapDatesInvalid)
	if err != nil {
		return nil, err
	}
	taken, err := parseRequiredDate(req.DayTaken, "day_taken", ErrSwapDatesInvalid)
	if err != nil {
		return nil, err
	}
	if givenUp.Equal(taken) {
		return nil, ErrSwapDatesInvalid.WithMessage("放弃日与调换日不能相同")
	}
	return &model.DaySwapRequest{
		UserID:        ownerID,
		DayGivenUp:    givenUp,
		DayTaken:      taken,
		Reason:        strings.TrimSpace(req.Reason),
		AttachmentURL: trimmed(req.AttachmentURL),
	}, nil
}

func patchDaySwap(_ context.Context, _ *repository.Repository, cur *model.DaySwapRequest, req *dto.UpdateDaySwapRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	givenUp, taken := cur.DayGivenUp, cur.DayTaken
	if req.DayGivenUp != nil {
		d, err := parseRequiredDate(*req.DayGivenUp, "day_given_up", ErrSwapDatesInvalid)
		if err != nil {
			return nil, err
		}
		givenUp = d
		fields["day_given_up"] = d
	}
	if req.DayTaken != nil {
		d, err := parseRequiredDate(*req.DayTaken, "day_taken", ErrSwapDatesInvalid)
		if err != nil {
			return nil, err
		}
		taken = d
		fields["day_taken"] = d
	}
	if givenUp.Equal(taken) {
		return nil, ErrSwapDatesInvalid.WithMessage("放弃日与调换日不能相同")
	}
	if req.Reason != nil {
		fields["reason"] = strings.TrimSpace(*req.Reason)
	}
	return fields, nil
}
