package fakes

import (
	"context"
	"errors"
	"sync"

	platformEvents "github.com/dhima/audittrail/platform/events"
)

// FakePublisher captures mirrored audit messages and can simulate failures.
type FakePublisher struct {
	mu        sync.Mutex
	Messages  []platformEvents.AuditMessage
	FailNext  bool
	FailError error
}

func (p *FakePublisher) Publish(_ context.Context, m platformEvents.AuditMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		if p.FailError == nil {
			p.FailError = errors.New("publish failed")
		}
		return p.FailError
	}
	p.Messages = append(p.Messages, m)
	return nil
}

func (p *FakePublisher) Published() []platformEvents.AuditMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platformEvents.AuditMessage(nil), p.Messages...)
}
