package mail

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"ecosol/internal/core/metrics"
	"ecosol/internal/domain"
)

type Options struct {
	Sender   Sender
	Workers  int64 // 同时发送的上限
	Queue    int64 // 等待发送的上限；超出直接丢弃
	Timeout  time.Duration
	BaseURL  string
	ResetTTL time.Duration
	Log      *zap.Logger
}

// Notifier 异步发信：不阻塞调用方，失败只记日志和指标
type Notifier struct {
	sender   Sender
	slots    *semaphore.Weighted // workers + queue，限制 goroutine 总数
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	timeout  time.Duration
	baseURL  string
	resetTTL time.Duration
	log      *zap.Logger
}

func NewNotifier(o Options) *Notifier {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Queue <= 0 {
		o.Queue = 256
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return &Notifier{
		sender: o.Sender, slots: semaphore.NewWeighted(o.Workers + o.Queue),
		sem: semaphore.NewWeighted(o.Workers), timeout: o.Timeout,
		baseURL: o.BaseURL, resetTTL: o.ResetTTL, log: o.Log,
	}
}

// Dispatch fire-and-forget；积压超过 workers+queue 时丢弃
func (n *Notifier) Dispatch(template string, msgs ...Message) {
	for _, m := range msgs {
		if len(m.To) == 0 {
			continue
		}
		if !n.slots.TryAcquire(1) {
			metrics.Mail.WithLabelValues(template, "dropped").Inc()
			n.log.Warn("mail queue full, dropped", zap.String("template", template), zap.Strings("to", m.To))
			continue
		}
		n.wg.Add(1)
		go func(m Message) {
			defer n.wg.Done()
			defer n.slots.Release(1)
			n.send(template, m)
		}(m)
	}
}

func (n *Notifier) send(template string, m Message) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.sem.Acquire(ctx, 1); err != nil {
		metrics.Mail.WithLabelValues(template, "dropped").Inc()
		n.log.Warn("mail dropped", zap.String("template", template), zap.Strings("to", m.To))
		return
	}
	defer n.sem.Release(1)
	if err := n.sender.Send(ctx, m); err != nil {
		metrics.Mail.WithLabelValues(template, "error").Inc()
		n.log.Error("mail send failed", zap.String("template", template), zap.Strings("to", m.To), zap.Error(err))
		return
	}
	metrics.Mail.WithLabelValues(template, "sent").Inc()
}

// Wait 关闭前等待在途邮件
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) renderAndDispatch(template string, to []string, subject string, v view) {
	html, err := render(template, v)
	if err != nil {
		metrics.Mail.WithLabelValues(template, "error").Inc()
		n.log.Error("mail render failed", zap.String("template", template), zap.Error(err))
		return
	}
	n.Dispatch(template, Message{To: to, Subject: subject, HTML: html})
}

// ListingSubmitted 通知所有管理员（一封群发）和提交者
func (n *Notifier) ListingSubmitted(admins []string, l domain.Listing) {
	v := view{Name: l.Name, Category: l.Category, Owner: l.OwnerEmail, Link: n.baseURL + "/admin/dashboard"}
	if len(admins) > 0 {
		n.renderAndDispatch("new_submission", admins, "Novo negócio aguardando aprovação", v)
	}
	n.renderAndDispatch("submission_received", []string{l.OwnerEmail}, "Recebemos seu cadastro", v)
}

func (n *Notifier) ListingPublished(ownerEmail string, id uint, name string) {
	v := view{Name: name, Link: fmt.Sprintf("%s/provider/%d", n.baseURL, id)}
	n.renderAndDispatch("listing_published", []string{ownerEmail}, "Seu negócio foi aprovado", v)
}

func (n *Notifier) PasswordReset(_ context.Context, email, token string) {
	v := view{
		Link:    n.baseURL + "/update-password?token=" + url.QueryEscape(token),
		Minutes: int(n.resetTTL / time.Minute),
	}
	n.renderAndDispatch("password_reset", []string{email}, "Redefinição de senha", v)
}
