package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/notify"
	"github.com/markaz-center/markazbot/internal/platform"
)

type alertRecord struct {
	severity string
	message  string
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alertRecord
}

func (a *fakeAlerter) Alert(_ context.Context, severity, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alertRecord{severity: severity, message: message})
}

func (a *fakeAlerter) bySeverity(severity string) []alertRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []alertRecord
	for _, rec := range a.alerts {
		if rec.severity == severity {
			out = append(out, rec)
		}
	}
	return out
}

type sentNotification struct {
	recipient int64
	kind      notify.TemplateKind
	params    map[string]string
}

// fakeNotifier records sends and fails while errs has entries left.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	errs  []error
	calls int
}

func (n *fakeNotifier) Send(_ context.Context, recipientID int64, kind notify.TemplateKind, params map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if len(n.errs) > 0 {
		err := n.errs[0]
		n.errs = n.errs[1:]
		if err != nil {
			return err
		}
	}
	n.sent = append(n.sent, sentNotification{recipient: recipientID, kind: kind, params: params})
	return nil
}

func (n *fakeNotifier) sentOfKind(kind notify.TemplateKind) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// fakePublisher scripts per-call outcomes; an exhausted script succeeds.
type fakePublisher struct {
	mu    sync.Mutex
	name  models.Platform
	calls []models.PostJob
	errs  []error
}

func (p *fakePublisher) Name() models.Platform { return p.name }

func (p *fakePublisher) Publish(_ context.Context, job models.PostJob) (res platform.PublishResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, job)
	if len(p.errs) > 0 {
		err = p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return res, err
		}
	}
	res.PlatformPostID = fmt.Sprintf("%s_%d", p.name, len(p.calls))
	return res, nil
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
