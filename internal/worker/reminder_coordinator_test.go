package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chetana/dailypushup/internal/store"
	"github.com/chetana/dailypushup/internal/types"
)

// fakeNotifier implements notify.Notifier for testing.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, body)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 6, 15, hour, 30, 0, 0, time.Local)
	}
}

func newTestReminder(reader StatsReader, notifier *fakeNotifier, hour int) *ReminderCoordinator {
	c := NewReminderCoordinator(reader, notifier, time.Hour, 6)
	c.now = fixedClock(hour)
	return c
}

func TestReminderFiresWhenPending(t *testing.T) {
	reader := &fakeStatsReader{stats: types.Stats{TodayTarget: 35, CurrentStreak: 5}}
	notifier := &fakeNotifier{}

	c := newTestReminder(reader, notifier, 18)
	c.check(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", notifier.count())
	}
}

func TestReminderSuppressedDuringQuietHours(t *testing.T) {
	reader := &fakeStatsReader{stats: types.Stats{TodayTarget: 35}}
	notifier := &fakeNotifier{}

	c := newTestReminder(reader, notifier, 5)
	c.check(context.Background())

	if notifier.count() != 0 {
		t.Errorf("expected no notification before quiet hour, got %d", notifier.count())
	}
}

func TestReminderFiresAtQuietBoundary(t *testing.T) {
	reader := &fakeStatsReader{stats: types.Stats{TodayTarget: 30}}
	notifier := &fakeNotifier{}

	// Quiet hours end at 06:00; 06:30 is fair game.
	c := newTestReminder(reader, notifier, 6)
	c.check(context.Background())

	if notifier.count() != 1 {
		t.Errorf("expected notification at quiet boundary, got %d", notifier.count())
	}
}

func TestReminderSuppressedWhenValidated(t *testing.T) {
	reader := &fakeStatsReader{stats: types.Stats{TodayValidated: true}}
	notifier := &fakeNotifier{}

	c := newTestReminder(reader, notifier, 18)
	c.check(context.Background())

	if notifier.count() != 0 {
		t.Errorf("expected no notification after validation, got %d", notifier.count())
	}
}

func TestReminderSuppressedWhenNeverSynced(t *testing.T) {
	reader := &fakeStatsReader{err: store.ErrNotFound}
	notifier := &fakeNotifier{}

	c := newTestReminder(reader, notifier, 18)
	c.check(context.Background())

	if notifier.count() != 0 {
		t.Errorf("expected no notification without stats, got %d", notifier.count())
	}
}

func TestReminderToleratesNotifierFailure(t *testing.T) {
	reader := &fakeStatsReader{stats: types.Stats{TodayTarget: 35}}
	notifier := &fakeNotifier{err: errors.New("dbus gone")}

	c := newTestReminder(reader, notifier, 18)
	// Must not panic; failure is logged.
	c.check(context.Background())
}

func TestReminderRunStopsOnCancel(t *testing.T) {
	c := NewReminderCoordinator(&fakeStatsReader{err: store.ErrNotFound}, &fakeNotifier{}, 10*time.Millisecond, 6)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop on context cancel")
	}
}
