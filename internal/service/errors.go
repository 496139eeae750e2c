package service

import (
	"fmt"
	"strings"

	pkgerrors "e-hrm/backend/pkg/errors"
)

// ── 业务错误定义 ──
//
// 业务码按模块分段：1xxxx 通用/认证/用户，2xxxx 审批与各类申请，3xxxx 排班/额度/基础数据。

var (
	// 通用
	ErrInvalidParam  = pkgerrors.New(pkgerrors.ErrValidation, 10001, "参数校验失败")
	ErrAdminRequired = pkgerrors.New(pkgerrors.ErrForbidden, 10003, "仅管理员可执行该操作")

	// 认证
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.ErrUnauthenticated, 11001, "邮箱或密码错误")
	ErrTokenInvalid       = pkgerrors.New(pkgerrors.ErrUnauthenticated, 11002, "登录已失效，请重新登录")

	// 用户
	ErrUserNotFound    = pkgerrors.New(pkgerrors.ErrNotFound, 12001, "用户不存在")
	ErrEmailDuplicate  = pkgerrors.New(pkgerrors.ErrConflict, 12002, "邮箱已被使用")
	ErrOnBehalfDenied  = pkgerrors.New(pkgerrors.ErrForbidden, 12003, "无权代他人提交或修改申请")
	ErrPasswordTooWeak = pkgerrors.New(pkgerrors.ErrValidation, 12004, "密码长度不能少于 8 位")

	// 审批链与流程
	ErrChainInvalid       = pkgerrors.New(pkgerrors.ErrValidation, 20001, "审批链配置无效")
	ErrSlotNotFound       = pkgerrors.New(pkgerrors.ErrNotFound, 20002, "审批节点不存在")
	ErrSubmissionNotFound = pkgerrors.New(pkgerrors.ErrNotFound, 20003, "申请不存在")
	ErrDecisionForbidden  = pkgerrors.New(pkgerrors.ErrForbidden, 20004, "无权审批该节点")
	ErrSlotDecided        = pkgerrors.New(pkgerrors.ErrConflict, 20005, "该审批节点已处理")
	ErrInvalidDecision    = pkgerrors.New(pkgerrors.ErrValidation, 20006, "审批结果只能为 approved 或 rejected")
	ErrInvalidKind        = pkgerrors.New(pkgerrors.ErrValidation, 20007, "未知的申请类型")
	ErrSubmissionLocked   = pkgerrors.New(pkgerrors.ErrConflict, 20008, "申请已有审批结果，不能修改或删除")
	ErrNotOwner           = pkgerrors.New(pkgerrors.ErrForbidden, 20009, "只能操作本人的申请")

	// 请假
	ErrLeaveCategoryNotFound = pkgerrors.New(pkgerrors.ErrNotFound, 21001, "请假类别不存在")
	ErrLeaveDatesInvalid     = pkgerrors.New(pkgerrors.ErrValidation, 21002, "请假日期无效")
	ErrReturnPatternRequired = pkgerrors.New(pkgerrors.ErrValidation, 21003, "请假含返岗日期，审批通过时必须指定 return_pattern_id")
	ErrReturnDateInvalid     = pkgerrors.New(pkgerrors.ErrValidation, 21004, "返岗日期必须晚于最后一天请假日期")

	// 小时请假
	ErrPermitTimeInvalid = pkgerrors.New(pkgerrors.ErrValidation, 22001, "请假时段无效，格式为 HH:MM 且结束晚于开始")

	// 换休
	ErrSwapDatesInvalid = pkgerrors.New(pkgerrors.ErrValidation, 23001, "换休日期无效")

	// 资金类申请
	ErrAmountInvalid = pkgerrors.New(pkgerrors.ErrValidation, 24001, "金额必须大于 0")
	ErrPeriodInvalid = pkgerrors.New(pkgerrors.ErrValidation, 24002, "期间无效")

	// 排班台账
	ErrWorkPatternNotFound = pkgerrors.New(pkgerrors.ErrNotFound, 30001, "工作时间模板不存在")
	ErrShiftKeyConflict    = pkgerrors.New(pkgerrors.ErrConflict, 30002, "排班记录日期冲突")
	ErrShiftStatusInvalid  = pkgerrors.New(pkgerrors.ErrValidation, 30003, "排班状态只能为 WORK 或 OFF")
	ErrShiftDateInvalid    = pkgerrors.New(pkgerrors.ErrValidation, 30004, "排班日期无效")

	// 月度额度
	ErrInsufficientQuota = pkgerrors.New(pkgerrors.ErrConflict, 32001, "请假额度不足")
	ErrQuotaMonthInvalid = pkgerrors.New(pkgerrors.ErrValidation, 32002, "月份格式应为 YYYY-MM")

	// 基础数据
	ErrWorkPatternInvalid  = pkgerrors.New(pkgerrors.ErrValidation, 33001, "工作时间模板无效")
	ErrLeaveCategoryExists = pkgerrors.New(pkgerrors.ErrConflict, 33002, "请假类别名称已存在")

	// 通知
	ErrNotificationNotFound = pkgerrors.New(pkgerrors.ErrNotFound, 34001, "通知不存在")
)

// QuotaShortage 单月额度缺口
type QuotaShortage struct {
	Month     string `json:"month"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// InsufficientQuotaError 一次扣减中所有额度不足的月份
type InsufficientQuotaError struct {
	Shortages []QuotaShortage
}

func (e *InsufficientQuotaError) Error() string {
	months := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		months[i] = s.Month
	}
	return fmt.Sprintf("请假额度不足: %s", strings.Join(months, ", "))
}

// Unwrap 展开为带逐月详情的 ErrInsufficientQuota
func (e *InsufficientQuotaError) Unwrap() error {
	details := make([]pkgerrors.Detail, len(e.Shortages))
	for i, s := range e.Shortages {
		details[i] = pkgerrors.Detail{
			Index:   i,
			Field:   s.Month,
			Message: fmt.Sprintf("需要 %d 天，剩余 %d 天", s.Required, s.Available),
		}
	}
	return ErrInsufficientQuota.WithDetails(details...)
}

// invalidParam 构造单字段校验错误
func invalidParam(field, message string) error {
	return ErrInvalidParam.WithMessage("%s", message).WithDetails(pkgerrors.Detail{Field: field, Message: message})
}
