package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	mail "github.com/go-mail/mail/v2"

	"e-hrm/backend/config"
)

// RecipientResolver 将事件接收方解析为邮箱地址列表（按用户偏好过滤）
type RecipientResolver func(ctx context.Context, ev Event) ([]string, error)

// MailSink 通过 SMTP 发送邮件通知
type MailSink struct {
	dialer  *mail.Dialer
	from    string
	resolve RecipientResolver
}

// NewMailSink smtp_host 为空时返回 nil，调用方应跳过该 sink
func NewMailSink(cfg *config.MailConfig, resolve RecipientResolver) *MailSink {
	if cfg.SMTPHost == "" || cfg.From == "" {
		return nil
	}
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return &MailSink{dialer: d, from: cfg.From, resolve: resolve}
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Deliver(ctx context.Context, ev Event) error {
	to, err := s.resolve(ctx, ev)
	if err != nil {
		return fmt.Errorf("解析邮件接收人失败: %w", err)
	}
	if len(to) == 0 {
		return nil
	}

	m := BuildMessage(s.from, to, ev)
	return s.dialer.DialAndSend(m)
}

// BuildMessage 组装通知邮件
func BuildMessage(from string, to []string, ev Event) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", ev.Title)
	m.SetBody("text/plain", ev.Body)
	m.AddAlternative("text/html", "<p>"+html.EscapeString(ev.Body)+"</p>")
	return m
}
