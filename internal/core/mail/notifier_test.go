package mail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecosol/internal/domain"
)

type recorder struct {
	mu       sync.Mutex
	msgs     []Message
	fail     bool
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (r *recorder) Send(_ context.Context, m Message) error {
	cur := r.inflight.Add(1)
	defer r.inflight.Add(-1)
	for {
		p := r.peak.Load()
		if cur <= p || r.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(r.delay)
	if r.fail {
		return errors.New("smtp down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestListingSubmittedNotifiesAdminsAndOwner(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(Options{Sender: rec, BaseURL: "https://ecosol.test"})

	n.ListingSubmitted([]string{"a1@x.com", "a2@x.com"}, domain.Listing{
		Name: "Padaria <b>Pão</b>", Category: "alimentacao", OwnerEmail: "dono@x.com",
	})
	n.Wait()

	msgs := rec.sent()
	require.Len(t, msgs, 2)
	var admin, owner Message
	for _, m := range msgs {
		if len(m.To) == 2 {
			admin = m
		} else {
			owner = m
		}
	}
	assert.Equal(t, []string{"a1@x.com", "a2@x.com"}, admin.To)
	assert.Contains(t, admin.HTML, "https://ecosol.test/admin/dashboard")
	assert.Contains(t, admin.HTML, "&lt;b&gt;")
	assert.NotContains(t, admin.HTML, "<b>Pão</b>")
	assert.Equal(t, []string{"dono@x.com"}, owner.To)
}

func TestListingSubmittedWithoutAdmins(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(Options{Sender: rec})
	n.ListingSubmitted(nil, domain.Listing{Name: "X", OwnerEmail: "dono@x.com"})
	n.Wait()
	require.Len(t, rec.sent(), 1)
}

func TestPasswordResetLink(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(Options{Sender: rec, BaseURL: "https://ecosol.test", ResetTTL: 30 * time.Minute})
	n.PasswordReset(context.Background(), "ana@x.com", "tok-123")
	n.Wait()

	msgs := rec.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].HTML, "https://ecosol.test/update-password?token=tok-123")
	assert.Contains(t, msgs[0].HTML, "30 minutos")
}

func TestDispatchFailureDoesNotPanic(t *testing.T) {
	rec := &recorder{fail: true}
	n := NewNotifier(Options{Sender: rec})
	n.ListingPublished("dono@x.com", 3, "Padaria")
	n.Wait()
	assert.Empty(t, rec.sent())
}

func TestDispatchIsBounded(t *testing.T) {
	rec := &recorder{delay: 20 * time.Millisecond}
	n := NewNotifier(Options{Sender: rec, Workers: 2})
	for i := 0; i < 10; i++ {
		n.Dispatch("t", Message{To: []string{"x@x.com"}, Subject: "s"})
	}
	n.Dispatch("t", Message{Subject: "no recipients"})
	n.Wait()

	assert.Len(t, rec.sent(), 10)
	assert.LessOrEqual(t, rec.peak.Load(), int32(2))
}

func TestDispatchDropsBeyondBacklog(t *testing.T) {
	rec := &recorder{delay: 50 * time.Millisecond}
	n := NewNotifier(Options{Sender: rec, Workers: 1, Queue: 1})
	for i := 0; i < 20; i++ {
		n.Dispatch("t", Message{To: []string{"x@x.com"}, Subject: "s"})
	}
	n.Wait()

	// 一个在发，一个排队，其余丢弃
	assert.Len(t, rec.sent(), 2)
	assert.LessOrEqual(t, rec.peak.Load(), int32(1))

	n.Dispatch("t", Message{To: []string{"x@x.com"}, Subject: "after drain"})
	n.Wait()
	assert.Len(t, rec.sent(), 3)
}
