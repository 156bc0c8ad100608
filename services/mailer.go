package services

import (
	"context"
	"fmt"

	"RemindlyGo/config"
	"RemindlyGo/utils"

	"gopkg.in/gomail.v2"
)

// OutboundMessage 一封待发送的通知邮件
type OutboundMessage struct {
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer 邮件发送接口，返回投递ID
type Mailer interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

// SMTPMailer 基于gomail的SMTP实现
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(conf config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword),
		from:   conf.MailFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		mail.SetHeader("Reply-To", msg.ReplyTo)
	}
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		mail.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := m.dialer.DialAndSend(mail); err != nil {
		return "", fmt.Errorf("SMTP发送失败: %w", err)
	}

	// SMTP不返回投递ID，生成一个便于日志追踪
	return utils.GenerateID(), nil
}

// sendWithRetry 发送邮件，遇到瞬时失败重试一次
func sendWithRetry(ctx context.Context, mailer Mailer, msg OutboundMessage) (string, error) {
	id, err := mailer.Send(ctx, msg)
	if err == nil {
		return id, nil
	}
	config.Logger.Warnw("邮件发送失败，重试一次", "error", err, "to", msg.To, "subject", msg.Subject)
	return mailer.Send(ctx, msg)
}

// replyAddress 生成携带任务ID的回复地址，形如 task+<id>@<domain>
func replyAddress(taskID string) string {
	return fmt.Sprintf("task+%s@%s", taskID, replyDomain)
}

var replyDomain = "remindly.app"

// SetReplyDomain 配置回复地址域名
func SetReplyDomain(domain string) {
	if domain != "" {
		replyDomain = domain
	}
}
