package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/pkg/notify"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// ── 申请通用服务 ────────────────────────────────────────────
//
// 六类申请共用一套新建/查询/编辑/删除流程，差异只在 kindSpec：
// 字段校验与构造（build）、编辑字段计算（patch）。
// 编辑规则：
//   - 申请人只能在 pending 时编辑或删除本人申请
//   - 管理员可编辑任意申请；已有结果的申请必须同时提交审批链，
//     同步后整体状态回到 pending 并执行离开原状态的副作用
// ─────────────────────────────────────────────────────────────

// kindSpec 申请类型差异点
type kindSpec[E any, C any, U any] struct {
	kind       model.SubmissionKind
	repo       func(*repository.Repository) repository.SubmissionRepository[E]
	createBase func(*C) *dto.SubmissionCommon
	patchBase  func(*U) *dto.SubmissionPatch
	build      func(ctx context.Context, tx *repository.Repository, req *C, ownerID string) (*E, error)
	patch      func(ctx context.Context, tx *repository.Repository, cur *E, req *U) (map[string]interface{}, error)
}

// SubmissionService 单一类型申请的增删改查
type SubmissionService[E any, C any, U any] interface {
	Kind() model.SubmissionKind
	Create(ctx context.Context, actor Actor, req *C) (*dto.SubmissionDetail[E], error)
	Get(ctx context.Context, actor Actor, id string) (*dto.SubmissionDetail[E], error)
	List(ctx context.Context, actor Actor, req *dto.SubmissionListRequest) ([]dto.SubmissionDetail[E], int64, error)
	Update(ctx context.Context, actor Actor, id string, req *U) (*dto.SubmissionDetail[E], error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type submissionService[E any, PE interface {
	*E
	model.Submission
}, C any, U any] struct {
	repo   *repository.Repository
	engine *workflowEngine
	spec   kindSpec[E, C, U]
	logger *zap.Logger
}

func newSubmissionService[E any, PE interface {
	*E
	model.Submission
}, C any, U any](repo *repository.Repository, engine *workflowEngine, spec kindSpec[E, C, U], logger *zap.Logger) *submissionService[E, PE, C, U] {
	return &submissionService[E, PE, C, U]{
		repo:   repo,
		engine: engine,
		spec:   spec,
		logger: logger.With(zap.String("kind", string(spec.kind))),
	}
}

func (s *submissionService[E, PE, C, U]) Kind() model.SubmissionKind { return s.spec.kind }

func (s *submissionService[E, PE, C, U]) Create(ctx context.Context, actor Actor, req *C) (*dto.SubmissionDetail[E], error) {
	base := s.spec.createBase(req)

	// 1. 确定申请人
	ownerID, err := s.resolveOwner(ctx, actor, base.UserID)
	if err != nil {
		return nil, err
	}

	// 2. 审批链结构校验，先于事务失败
	if err := ValidateChain(base.Approvals); err != nil {
		return nil, err
	}

	var detail *dto.SubmissionDetail[E]
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 3. 类型字段校验与构造
		entity, err := s.spec.build(ctx, tx, req, ownerID)
		if err != nil {
			return err
		}
		sub := PE(entity)
		*sub.State() = model.WorkflowState{Status: model.StatusPending}
		v := sub.Versioned()
		v.Version = 1
		v.CreatedBy = &actor.UserID
		v.UpdatedBy = &actor.UserID

		if err := s.spec.repo(tx).Create(ctx, entity); err != nil {
			s.logger.Error("创建申请失败", zap.String("user_id", ownerID), zap.Error(err))
			return pkgerrors.Internal("创建申请", err)
		}

		// 4. 审批链
		slots, err := s.engine.chain.Create(ctx, tx, s.spec.kind, sub.ID(), base.Approvals, &actor.UserID)
		if err != nil {
			return err
		}

		detail = &dto.SubmissionDetail[E]{Submission: entity, Approvals: slots}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub := PE(detail.Submission)
	s.engine.notifier.Notify(approvalRequestedEvents(s.spec.kind, sub.ID(), ownerID, actor.UserID, detail.Approvals)...)
	s.logger.Info("申请已提交",
		zap.String("id", sub.ID()),
		zap.String("user_id", ownerID),
		zap.Int("levels", len(detail.Approvals)))
	return detail, nil
}

func (s *submissionService[E, PE, C, U]) Get(ctx context.Context, actor Actor, id string) (*dto.SubmissionDetail[E], error) {
	entity, err := s.spec.repo(s.repo).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询申请失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Internal("查询申请", err)
	}
	slots, err := s.repo.ApprovalSlot.ListBySubmission(ctx, s.spec.kind, id)
	if err != nil {
		return nil, pkgerrors.Internal("查询审批链", err)
	}
	if !s.engine.canView(s.spec.kind, actor, PE(entity).OwnerID(), slots) {
		return nil, ErrNotOwner
	}
	return &dto.SubmissionDetail[E]{Submission: entity, Approvals: slots}, nil
}

func (s *submissionService[E, PE, C, U]) List(ctx context.Context, actor Actor, req *dto.SubmissionListRequest) ([]dto.SubmissionDetail[E], int64, error) {
	filter := repository.SubmissionFilter{
		UserID: actor.UserID,
		Status: req.Status,
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	}
	// 管理员与越权角色可查看全部，按 user_id 可选筛选
	if s.engine.policy.IsAdmin(actor.Role) || s.engine.policy.CanBypass(s.spec.kind, actor.Role) {
		filter.UserID = req.UserID
	}

	list, total, err := s.spec.repo(s.repo).List(ctx, filter)
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, 0, pkgerrors.Internal("查询申请列表", err)
	}

	ids := make([]string, len(list))
	for i := range list {
		ids[i] = PE(&list[i]).ID()
	}
	slots, err := s.repo.ApprovalSlot.ListBySubmissions(ctx, s.spec.kind, ids)
	if err != nil {
		return nil, 0, pkgerrors.Internal("查询审批链", err)
	}
	bySubmission := make(map[string][]model.ApprovalSlot, len(list))
	for _, slot := range slots {
		bySubmission[slot.SubmissionID] = append(bySubmission[slot.SubmissionID], slot)
	}

	out := make([]dto.SubmissionDetail[E], len(list))
	for i := range list {
		approvals := bySubmission[ids[i]]
		if approvals == nil {
			approvals = []model.ApprovalSlot{}
		}
		out[i] = dto.SubmissionDetail[E]{Submission: &list[i], Approvals: approvals}
	}
	return out, total, nil
}

func (s *submissionService[E, PE, C, U]) Update(ctx context.Context, actor Actor, id string, req *U) (*dto.SubmissionDetail[E], error) {
	patch := s.spec.patchBase(req)
	if patch.Approvals != nil {
		if err := ValidateChain(*patch.Approvals); err != nil {
			return nil, err
		}
	}

	var (
		detail  *dto.SubmissionDetail[E]
		from    model.SubmissionStatus
		synced  *ChainSyncResult
		effects *TransitionEffects
		ownerID string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 锁定并检查权限
		head, err := s.engine.lockHead(ctx, tx, s.spec.kind, id)
		if err != nil {
			return err
		}
		from, ownerID = head.Status, head.UserID

		admin := s.engine.policy.IsAdmin(actor.Role)
		if head.UserID != actor.UserID && !admin {
			return ErrNotOwner
		}
		if head.Status != model.StatusPending {
			if !admin {
				return ErrSubmissionLocked
			}
			if patch.Approvals == nil {
				return ErrSubmissionLocked.WithMessage("已有审批结果的申请需连同审批链一起修改，修改后重新审批")
			}
		}

		// 2. 同步审批链；先于字段更新，离开 approved 的副作用按修改前的数据执行
		if patch.Approvals != nil {
			synced, effects, err = s.engine.restart(ctx, tx, s.spec.kind, head, *patch.Approvals, actor)
			if err != nil {
				return err
			}
		}

		// 3. 字段更新
		repo := s.spec.repo(tx)
		cur, err := repo.GetByID(ctx, id)
		if err != nil {
			return pkgerrors.Internal("查询申请", err)
		}
		fields, err := s.spec.patch(ctx, tx, cur, req)
		if err != nil {
			return err
		}
		if patch.AttachmentURL != nil {
			fields["attachment_url"] = trimmed(patch.AttachmentURL)
		}
		if len(fields) > 0 {
			fields["updated_by"] = actor.UserID
			if err := repo.Update(ctx, id, head.Version, fields); err != nil {
				if errors.Is(err, pkgerrors.ErrOptimisticLock) {
					return err
				}
				s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
				return pkgerrors.Internal("更新申请", err)
			}
		}

		// 4. 回读
		updated, err := repo.GetByID(ctx, id)
		if err != nil {
			return pkgerrors.Internal("查询申请", err)
		}
		slots, err := tx.ApprovalSlot.ListBySubmission(ctx, s.spec.kind, id)
		if err != nil {
			return pkgerrors.Internal("查询审批链", err)
		}
		detail = &dto.SubmissionDetail[E]{Submission: updated, Approvals: slots}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if synced != nil {
		recordEffects(s.spec.kind, from, model.StatusPending, effects)
		events := approvalRequestedEvents(s.spec.kind, id, ownerID, actor.UserID, synced.Opened())
		if from != model.StatusPending {
			events = append(events, notify.Event{
				Type:        notify.EventStatusChanged,
				UserID:      ownerID,
				ActorID:     actor.UserID,
				Title:       kindLabel(s.spec.kind) + " " + string(model.StatusPending),
				Body:        "Rantai persetujuan diubah, pengajuan kembali menunggu persetujuan.",
				RelatedKind: string(s.spec.kind),
				RelatedID:   id,
				Payload:     map[string]interface{}{"from": from, "to": model.StatusPending},
			})
		}
		s.engine.notifier.Notify(events...)
		s.logger.Info("审批链已同步",
			zap.String("id", id),
			zap.String("from", string(from)),
			zap.Int("created", len(synced.Created)),
			zap.Int("reset", len(synced.Reset)),
			zap.Int("removed", synced.Removed))
	}
	return detail, nil
}

func (s *submissionService[E, PE, C, U]) Delete(ctx context.Context, actor Actor, id string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		head, err := s.engine.lockHead(ctx, tx, s.spec.kind, id)
		if err != nil {
			return err
		}
		if head.UserID != actor.UserID && !s.engine.policy.IsAdmin(actor.Role) {
			return ErrNotOwner
		}
		if head.Status != model.StatusPending {
			return ErrSubmissionLocked
		}

		if err := tx.ApprovalSlot.DeleteBySubmission(ctx, s.spec.kind, id); err != nil {
			return pkgerrors.Internal("删除审批链", err)
		}
		if err := s.spec.repo(tx).Delete(ctx, id, actor.UserID); err != nil {
			s.logger.Error("删除申请失败", zap.String("id", id), zap.Error(err))
			return pkgerrors.Internal("删除申请", err)
		}
		return nil
	})
}

// resolveOwner 未指定或指定本人时为操作人；代他人提交需管理员角色且目标用户存在
func (s *submissionService[E, PE, C, U]) resolveOwner(ctx context.Context, actor Actor, requested *string) (string, error) {
	target := trimmed(requested)
	if target == nil || *target == actor.UserID {
		return actor.UserID, nil
	}
	if !s.engine.policy.IsAdmin(actor.Role) {
		return "", ErrOnBehalfDenied
	}
	if _, err := s.repo.User.GetByID(ctx, *target); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", pkgerrors.Internal("查询用户", err)
	}
	return *target, nil
}
