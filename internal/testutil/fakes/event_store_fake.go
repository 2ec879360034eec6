package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dhima/audittrail/internal/models"
	"github.com/dhima/audittrail/pkg/audittrail"
)

var ErrStoreDown = errors.New("store unavailable")

// FakeEventStore is an in-memory event store. It satisfies both the storage
// contract used by the events service and audittrail.Store.
type FakeEventStore struct {
	mu       sync.Mutex
	events   map[string]audittrail.Event
	order    []string
	FailNext bool
}

func NewFakeEventStore() *FakeEventStore {
	return &FakeEventStore{events: make(map[string]audittrail.Event)}
}

func (f *FakeEventStore) SaveEvent(ctx context.Context, e *audittrail.Event) error {
	return f.CreateEvent(ctx, e)
}

func (f *FakeEventStore) CreateEvent(_ context.Context, e *audittrail.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext {
		f.FailNext = false
		return ErrStoreDown
	}
	f.events[e.ID] = *e
	f.order = append(f.order, e.ID)
	return nil
}

func (f *FakeEventStore) GetEvent(_ context.Context, eventID string) (*audittrail.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (f *FakeEventStore) ListEvents(_ context.Context, q models.ListEventsQuery) ([]audittrail.Event, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audittrail.Event, 0)
	for _, id := range f.order {
		ev, ok := f.events[id]
		if !ok {
			continue
		}
		if q.UserID != "" && (ev.UserID == nil || *ev.UserID != q.UserID) {
			continue
		}
		if q.ContentType != "" && (ev.ContentType == nil || *ev.ContentType != q.ContentType) {
			continue
		}
		if q.ObjectID != "" && (ev.ObjectID == nil || *ev.ObjectID != q.ObjectID) {
			continue
		}
		if q.RequestPath != "" && ev.RequestPath != q.RequestPath {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventTime.After(out[j].EventTime) })
	total := int64(len(out))
	page, limit := q.Normalize()
	start := (page - 1) * limit
	if start > len(out) {
		return []audittrail.Event{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *FakeEventStore) DeleteEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, ev := range f.events {
		if ev.EventTime.Before(cutoff) {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

// Events returns stored events in insertion order.
func (f *FakeEventStore) Events() []audittrail.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audittrail.Event, 0, len(f.events))
	for _, id := range f.order {
		if ev, ok := f.events[id]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recently stored event.
func (f *FakeEventStore) Last() (audittrail.Event, bool) {
	events := f.Events()
	if len(events) == 0 {
		return audittrail.Event{}, false
	}
	return events[len(events)-1], true
}
