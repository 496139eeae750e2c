package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSSink 将事件发布到 NATS，subject 形如 notifications.hrm.<event_type>
type NATSSink struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSSink 连接 NATS；url 为空时返回 nil，调用方应跳过该 sink
func NewNATSSink(url, prefix string, logger *zap.Logger) (*NATSSink, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("e-hrm"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS 连接断开", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS 已重连", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS 连接失败: %w", err)
	}
	logger.Info("NATS 连接成功", zap.String("url", url))
	return &NATSSink{conn: conn, prefix: prefix, logger: logger}, nil
}

func (s *NATSSink) Name() string { return "nats" }

// Subject 事件对应的 subject
func (s *NATSSink) Subject(eventType string) string {
	return fmt.Sprintf("%s.%s", s.prefix, eventType)
}

func (s *NATSSink) Deliver(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化通知事件失败: %w", err)
	}
	subject := s.Subject(ev.Type)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("发布 %s 失败: %w", subject, err)
	}
	s.logger.Debug("通知事件已发布", zap.String("subject", subject))
	return nil
}

// Close 刷新缓冲并关闭连接
func (s *NATSSink) Close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}
