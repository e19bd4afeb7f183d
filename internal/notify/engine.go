// Package notify implements the due-date notification core: the
// trigger engine that selects near-due and overdue tasks, the
// suppression ledger that keeps externally-driven cron firings from
// producing notification storms, template rendering, and webhook
// fan-out.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/settings"
	"github.com/nhle/taskboard/internal/store"
)

// Invocation modes accepted by Run.
const (
	ModeNearDue = "near_due"
	ModeOverdue = "overdue"
	ModeBoth    = "both"
)

// Per-kind suppression windows. A task notified within its window is
// skipped on subsequent runs: due-soon repeats at most daily, overdue
// repeats hourly because the state is urgent.
const (
	dueSoonSuppression = 24 * time.Hour
	overdueSuppression = time.Hour
)

// TestSubject and TestPayload are the fixed message sent by the manual
// test endpoint. It bypasses task state and the suppression ledger.
const (
	TestSubject = "Test"
	TestPayload = "# Test notification\nThis is a test."
)

// ErrBadMode reports an invocation mode outside the accepted set.
var ErrBadMode = fmt.Errorf("mode must be one of %s, %s, %s", ModeNearDue, ModeOverdue, ModeBoth)

// Engine owns no persistent state: each invocation reads tasks,
// settings, and the notification log, and appends new log rows in one
// transaction at the end. Concurrent invocations can race the
// read-then-append dedup check and duplicate a notification; the
// windows bound the damage and the log keeps the audit trail, so no
// locking is taken here.
type Engine struct {
	st    store.Store
	cache *settings.Cache
	disp  Dispatcher
	log   zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine wires the trigger engine.
func NewEngine(st store.Store, cache *settings.Cache, disp Dispatcher, log zerolog.Logger) *Engine {
	return &Engine{st: st, cache: cache, disp: disp, log: log, now: time.Now}
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Run executes the entry points selected by mode, sequentially, and
// returns the summed count of log entries written.
func (e *Engine) Run(ctx context.Context, mode string) (int, error) {
	switch mode {
	case ModeNearDue, ModeOverdue, ModeBoth:
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadMode, mode)
	}

	sent := 0
	if mode == ModeNearDue || mode == ModeBoth {
		n, err := e.TriggerDueSoon(ctx)
		if err != nil {
			return sent, err
		}
		sent += n
	}
	if mode == ModeOverdue || mode == ModeBoth {
		n, err := e.TriggerOverdue(ctx)
		if err != nil {
			return sent, err
		}
		sent += n
	}
	return sent, nil
}

// TriggerDueSoon notifies for pending tasks due within the configured
// near-due horizon, skipping tasks already notified in the last 24h.
// Returns the number of log entries written (tasks times successful
// destinations).
func (e *Engine) TriggerDueSoon(ctx context.Context) (int, error) {
	snap := e.cache.Current()
	now := e.now()

	hours := snap.NearDueHours
	if hours <= 0 {
		hours = 24
	}
	horizon := now.Add(time.Duration(hours) * time.Hour)

	tasks, err := e.st.ListDueBetween(ctx, now, horizon)
	if err != nil {
		return 0, err
	}

	return e.notify(ctx, snap, now, tasks, model.KindDueSoon)
}

// TriggerOverdue notifies for pending tasks past their due timestamp,
// skipping tasks already notified in the last hour.
func (e *Engine) TriggerOverdue(ctx context.Context) (int, error) {
	snap := e.cache.Current()
	now := e.now()

	tasks, err := e.st.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	return e.notify(ctx, snap, now, tasks, model.KindOverdue)
}

// SendTest fans the fixed test message out without consulting task
// state or the suppression ledger, and logs the deliveries.
func (e *Engine) SendTest(ctx context.Context) ([]string, error) {
	snap := e.cache.Current()
	now := e.now()

	delivered := e.disp.SendAll(ctx, TestSubject, TestPayload, snap)

	entries := make([]model.NotificationLog, 0, len(delivered))
	for _, dest := range delivered {
		entries = append(entries, model.NotificationLog{
			Kind:        model.KindTest,
			Destination: dest,
			Payload:     TestPayload,
			SentAt:      now,
		})
	}
	if err := e.st.AppendNotificationLogs(ctx, entries); err != nil {
		return delivered, err
	}
	return delivered, nil
}

// notify runs the shared eligibility/render/fan-out/log sequence for
// one kind. All log rows are committed together at the end; a failed
// destination loses nothing for the destinations that succeeded.
func (e *Engine) notify(ctx context.Context, snap settings.Snapshot, now time.Time, tasks []model.Task, kind string) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	suppressed, err := e.st.NotifiedTaskIDsSince(ctx, kind, now.Add(-suppressionWindow(kind)))
	if err != nil {
		return 0, err
	}

	tmpl, err := e.st.GetOrCreateTemplate(ctx, kind, defaultTemplate(kind))
	if err != nil {
		return 0, err
	}

	var entries []model.NotificationLog
	for _, t := range tasks {
		if suppressed[t.ID] {
			continue
		}

		payload, err := e.render(tmpl, t, now, snap, kind)
		if err != nil {
			// Render failures are fatal for the invocation; the next
			// scheduler firing retries once the template is fixed.
			return 0, fmt.Errorf("rendering %s for task %s: %w", kind, t.ID, err)
		}

		delivered := e.disp.SendAll(ctx, subjectFor(kind), payload, snap)
		for _, dest := range delivered {
			taskID := t.ID
			entries = append(entries, model.NotificationLog{
				TaskID:      &taskID,
				Kind:        kind,
				Destination: dest,
				Payload:     payload,
				SentAt:      now,
			})
		}
	}

	if err := e.st.AppendNotificationLogs(ctx, entries); err != nil {
		return 0, err
	}

	if len(entries) > 0 {
		e.log.Info().Str("kind", kind).Int("sent", len(entries)).Msg("notifications sent")
	}
	return len(entries), nil
}

func (e *Engine) render(tmpl string, t model.Task, now time.Time, snap settings.Snapshot, kind string) (string, error) {
	due := t.DueAt.In(snap.Location)
	data := map[string]string{
		"task_title": t.Title,
		"due_at":     due.Format("2006-01-02 15:04 MST"),
	}
	switch kind {
	case model.KindDueSoon:
		data["remaining"] = formatHours(due.Sub(now))
	case model.KindOverdue:
		data["overdue_by"] = formatHours(now.Sub(due))
	}
	return RenderTemplate(tmpl, data)
}

// formatHours renders a duration as whole hours, rounded up so a task
// due in one minute reports "1h", never "0h".
func formatHours(d time.Duration) string {
	h := int64((d + time.Hour - 1) / time.Hour)
	if h < 1 {
		h = 1
	}
	return fmt.Sprintf("%dh", h)
}

func suppressionWindow(kind string) time.Duration {
	if kind == model.KindOverdue {
		return overdueSuppression
	}
	return dueSoonSuppression
}

func defaultTemplate(kind string) string {
	if kind == model.KindOverdue {
		return DefaultOverdueTemplate
	}
	return DefaultDueSoonTemplate
}

func subjectFor(kind string) string {
	if kind == model.KindOverdue {
		return "Task overdue"
	}
	return "Task due soon"
}
