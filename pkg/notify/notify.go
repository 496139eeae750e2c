package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"e-hrm/backend/pkg/metrics"
)

// 事件类型
const (
	EventApprovalRequested = "approval_requested" // 新建/修改申请后通知审批人
	EventApprovalDecided   = "approval_decided"   // 审批节点决策结果通知申请人
	EventStatusChanged     = "submission_status"  // 申请整体状态变化
	EventShiftAdjusted     = "shift_adjusted"     // 审批通过后的排班调整摘要
	EventQuotaInsufficient = "quota_insufficient" // 额度不足导致审批失败
)

// Event 出站通知事件
//
// UserID 与 Role 至少一个非空；Role 表示发给该角色下全部用户。
type Event struct {
	Type        string                 `json:"event_type"`
	UserID      string                 `json:"user_id,omitempty"`
	Role        string                 `json:"role,omitempty"`
	ActorID     string                 `json:"actor_id,omitempty"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	RelatedKind string                 `json:"related_kind,omitempty"`
	RelatedID   string                 `json:"related_id,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// Sink 通知投递通道
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Publisher 业务层依赖的发布接口：只入队，不等待投递结果
type Publisher interface {
	Notify(events ...Event)
}

// Nop 不做任何事的 Publisher
type Nop struct{}

func (Nop) Notify(...Event) {}

// Dispatcher 带缓冲队列与 worker 池的通知分发器
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 创建分发器，需调用 Start 启动 worker
func NewDispatcher(queueSize, workers int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:   make(chan Event, queueSize),
		sinks:   sinks,
		workers: workers,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Start 启动 worker
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.logger.Info("通知分发器已启动",
		zap.Int("workers", d.workers),
		zap.Int("sinks", len(d.sinks)),
	)
}

// Notify 非阻塞入队；队列已满或已关闭时丢弃并记录告警
func (d *Dispatcher) Notify(events ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ev := range events {
		if d.closed {
			d.logger.Warn("通知分发器已关闭，丢弃事件", zap.String("type", ev.Type))
			metrics.RecordNotification("queue", "dropped")
			continue
		}
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = time.Now().UTC()
		}
		select {
		case d.queue <- ev:
		default:
			d.logger.Warn("通知队列已满，丢弃事件",
				zap.String("type", ev.Type),
				zap.String("user_id", ev.UserID),
			)
			metrics.RecordNotification("queue", "dropped")
		}
	}
}

// Close 停止接收新事件并等待队列排空
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.deliver(ev)
	}
}

// deliver 逐个 sink 投递，任何错误只记录不外抛
func (d *Dispatcher) deliver(ev Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := s.Deliver(ctx, ev)
		cancel()
		if err != nil {
			d.logger.Warn("通知投递失败",
				zap.String("sink", s.Name()),
				zap.String("type", ev.Type),
				zap.String("user_id", ev.UserID),
				zap.String("role", ev.Role),
				zap.Error(err),
			)
			metrics.RecordNotification(s.Name(), "error")
			continue
		}
		metrics.RecordNotification(s.Name(), "ok")
	}
}
