package service

import (
	"strings"

	"e-hrm/backend/config"
	"e-hrm/backend/internal/model"
)

// Actor 当前操作人
type Actor struct {
	UserID string
	Role   string
}

// AuthorizationPolicy 审批授权策略
type AuthorizationPolicy interface {
	// CanDecide 操作人是否可决策该节点：本人节点、持有节点角色，或持有该类型的越权角色
	CanDecide(kind model.SubmissionKind, actor Actor, slot *model.ApprovalSlot) bool
	// CanBypass 是否持有该类型的越权角色
	CanBypass(kind model.SubmissionKind, role string) bool
	// IsAdmin 是否可代他人提交或修改申请
	IsAdmin(role string) bool
}

type configPolicy struct {
	admin  map[string]bool
	bypass map[model.SubmissionKind]map[string]bool
}

// NewAuthorizationPolicy 由 approval 配置构造授权策略
func NewAuthorizationPolicy(cfg config.ApprovalConfig) AuthorizationPolicy {
	p := &configPolicy{
		admin:  make(map[string]bool, len(cfg.AdminRoles)),
		bypass: make(map[model.SubmissionKind]map[string]bool, len(cfg.BypassRoles)),
	}
	for _, r := range cfg.AdminRoles {
		p.admin[normalizeRole(r)] = true
	}
	for kind, roles := range cfg.BypassRoles {
		set := make(map[string]bool, len(roles))
		for _, r := range roles {
			set[normalizeRole(r)] = true
		}
		p.bypass[model.SubmissionKind(strings.ToLower(kind))] = set
	}
	return p
}

func (p *configPolicy) CanDecide(kind model.SubmissionKind, actor Actor, slot *model.ApprovalSlot) bool {
	if slot.ApproverUserID != nil && *slot.ApproverUserID == actor.UserID {
		return true
	}
	if slot.ApproverRole != nil && normalizeRole(*slot.ApproverRole) == normalizeRole(actor.Role) {
		return true
	}
	return p.CanBypass(kind, actor.Role)
}

func (p *configPolicy) CanBypass(kind model.SubmissionKind, role string) bool {
	return p.bypass[kind][normalizeRole(role)]
}

func (p *configPolicy) IsAdmin(role string) bool {
	return p.admin[normalizeRole(role)]
}

func normalizeRole(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}
