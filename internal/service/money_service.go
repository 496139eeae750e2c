package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
)

// PaymentService 付款申请服务
type PaymentService = SubmissionService[model.Payment, dto.CreatePaymentRequest, dto.UpdatePaymentRequest]

// ReimbursementService 报销申请服务
type ReimbursementService = SubmissionService[model.Reimbursement, dto.CreateReimbursementRequest, dto.UpdateReimbursementRequest]

// PocketMoneyService 零用金申请服务
type PocketMoneyService = SubmissionService[model.PocketMoneyRequest, dto.CreatePocketMoneyRequest, dto.UpdatePocketMoneyRequest]

// checkAmount 金额必须为正，保留两位小数
func checkAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrAmountInvalid
	}
	return amount.Round(2), nil
}

// ── 付款 ──

func paymentSpec() kindSpec[model.Payment, dto.CreatePaymentRequest, dto.UpdatePaymentRequest] {
	return kindSpec[model.Payment, dto.CreatePaymentRequest, dto.UpdatePaymentRequest]{
		kind:       model.KindPayment,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.Payment] { return r.Payment },
		createBase: func(req *dto.CreatePaymentRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdatePaymentRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build: func(_ context.Context, _ *repository.Repository, req *dto.CreatePaymentRequest, ownerID string) (*model.Payment, error) {
			amount, err := checkAmount(req.Amount)
			if err != nil {
				return nil, err
			}
			return &model.Payment{
				UserID:        ownerID,
				Amount:        amount,
				Method:        strings.TrimSpace(req.Method),
				Reference:     strings.TrimSpace(req.Reference),
				Description:   strings.TrimSpace(req.Description),
				AttachmentURL: trimmed(req.AttachmentURL),
			}, nil
		},
		patch: func(_ context.Context, _ *repository.Repository, _ *model.Payment, req *dto.UpdatePaymentRequest) (map[string]interface{}, error) {
			fields := make(map[string]interface{})
			if req.Amount != nil {
				amount, err := checkAmount(*req.Amount)
				if err != nil {
					return nil, err
				}
				fields["amount"] = amount
			}
			if req.Method != nil {
				fields["method"] = strings.TrimSpace(*req.Method)
			}
			if req.Reference != nil {
				fields["reference"] = strings.TrimSpace(*req.Reference)
			}
			if req.Description != nil {
				fields["description"] = strings.TrimSpace(*req.Description)
			}
			return fields, nil
		},
	}
}

// ── 报销 ──

func reimbursementSpec() kindSpec[model.Reimbursement, dto.CreateReimbursementRequest, dto.UpdateReimbursementRequest] {
	return kindSpec[model.Reimbursement, dto.CreateReimbursementRequest, dto.UpdateReimbursementRequest]{
		kind:       model.KindReimbursement,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.Reimbursement] { return r.Reimbursement },
		createBase: func(req *dto.CreateReimbursementRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdateReimbursementRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build: func(_ context.Context, _ *repository.Repository, req *dto.CreateReimbursementRequest, ownerID string) (*model.Reimbursement, error) {
			amount, err := checkAmount(req.Amount)
			if err != nil {
				return nil, err
			}
			category := strings.TrimSpace(req.Category)
			if category == "" {
				return nil, invalidParam("category", "报销类别不能为空")
			}
			return &model.Reimbursement{
				UserID:        ownerID,
				Category:      category,
				Amount:        amount,
				Description:   strings.TrimSpace(req.Description),
				AttachmentURL: trimmed(req.AttachmentURL),
			}, nil
		},
		patch: func(_ context.Context, _ *repository.Repository, _ *model.Reimbursement, req *dto.UpdateReimbursementRequest) (map[string]interface{}, error) {
			fields := make(map[string]interface{})
			if req.Category != nil {
				category := strings.TrimSpace(*req.Category)
				if category == "" {
					return nil, invalidParam("category", "报销类别不能为空")
				}
				fields["category"] = category
			}
			if req.Amount != nil {
				amount, err := checkAmount(*req.Amount)
				if err != nil {
					return nil, err
				}
				fields["amount"] = amount
			}
			if req.Description != nil {
				fields["description"] = strings.TrimSpace(*req.Description)
			}
			return fields, nil
		},
	}
}

// ── 零用金 ──

func pocketMoneySpec() kindSpec[model.PocketMoneyRequest, dto.CreatePocketMoneyRequest, dto.UpdatePocketMoneyRequest] {
	return kindSpec[model.PocketMoneyRequest, dto.CreatePocketMoneyRequest, dto.UpdatePocketMoneyRequest]{
		kind:       model.KindPocketMoney,
		repo:       func(r *repository.Repository) repository.SubmissionRepository[model.PocketMoneyRequest] { return r.PocketMoney },
		createBase: func(req *dto.CreatePocketMoneyRequest) *dto.SubmissionCommon { return &req.SubmissionCommon },
		patchBase:  func(req *dto.UpdatePocketMoneyRequest) *dto.SubmissionPatch { return &req.SubmissionPatch },
		build: func(_ context.Context, _ *repository.Repository, req *dto.CreatePocketMoneyRequest, ownerID string) (*model.PocketMoneyRequest, error) {
			amount, err := checkAmount(req.Amount)
			if err != nil {
				return nil, err
			}
			start, err := parseRequiredDate(req.PeriodStart, "period_start", ErrPeriodInvalid)
			if err != nil {
				return nil, err
			}
			end, err := parseRequiredDate(req.PeriodEnd, "period_end", ErrPeriodInvalid)
			if err != nil {
				return nil, err
			}
			if end.Before(start) {
				return nil, ErrPeriodInvalid.WithMessage("期间结束日期不能早于开始日期")
			}
			return &model.PocketMoneyRequest{
				UserID:        ownerID,
				Amount:        amount,
				PeriodStart:   start,
				PeriodEnd:     end,
				Description:   strings.TrimSpace(req.Description),
				AttachmentURL: trimmed(req.AttachmentURL),
			}, nil
		},
		patch: func(_ context.Context, _ *repository.Repository, cur *model.PocketMoneyRequest, req *dto.UpdatePocketMoneyRequest) (map[string]interface{}, error) {
			fields := make(map[string]interface{})
			if req.Amount != nil {
				amount, err := checkAmount(*req.Amount)
				if err != nil {
					return nil, err
				}
				fields["amount"] = amount
			}
			start, end := cur.PeriodStart, cur.PeriodEnd
			if req.PeriodStart != nil {
				d, err := parseRequiredDate(*req.PeriodStart, "period_start", ErrPeriodInvalid)
				if err != nil {
					return nil, err
				}
				start = d
				fields["period_start"] = d
			}
			if req.PeriodEnd != nil {
				d, err := parseRequiredDate(*req.PeriodEnd, "period_end", ErrPeriodInvalid)
				if err != nil {
					return nil, err
				}
				end = d
				fields["period_end"] = d
			}
			if end.Before(start) {
				return nil, ErrPeriodInvalid.WithMessage("期间结束日期不能早于开始日期")
			}
			if req.Description != nil {
				fields["description"] = strings.TrimSpace(*req.Description)
			}
			return fields, nil
		},
	}
}
