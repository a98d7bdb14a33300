package mail

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

type SMTPSender struct {
	d    *gomail.Dialer
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{d: gomail.NewDialer(host, port, user, pass), from: from}
}

// Send gomail 不支持 ctx，只在发送前检查一次
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", s.from)
	gm.SetHeader("To", m.To...)
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/html", m.HTML)
	return s.d.DialAndSend(gm)
}

// LogSender 未配置 SMTP 时使用，只记日志
type LogSender struct{ Log *zap.Logger }

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Log.Info("mail (not sent, smtp disabled)", zap.Strings("to", m.To), zap.String("subject", m.Subject))
	return nil
}
