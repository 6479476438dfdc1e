package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/metrics"
)

const sendTimeout = 30 * time.Second

// Async runs every Send in its own goroutine. Failures are logged and counted,
// never returned to the caller.
type Async struct {
	sender  Sender
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(sender Sender, m *metrics.Metrics) *Async {
	return &Async{sender: sender, metrics: m}
}

func (a *Async) Dispatch(ctx context.Context, msg Message) {
	l := logging.FromContext(ctx).With("svc", "mailer.dispatch", "flavor", string(msg.Flavor))

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		l.Warn("email_dropped", "reason", "dispatcher closed")
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	sendCtx := logging.IntoContext(context.WithoutCancel(ctx), l)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(sendCtx, sendTimeout)
		defer cancel()

		err := a.sender.Send(sendCtx, msg)
		a.metrics.Email(string(msg.Flavor), err)
		if err != nil {
			l.Error("email_send_failed", "error", err)
			return
		}
		l.Info("email_sent")
	}()
}

// Close stops accepting work and waits for in-flight sends.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}
