package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/metrics"
	"github.com/ogulyaev/todo-api/internal/model"
)

func newTestNotifier(taskSrc TaskSource, userSrc UserSource, mailer Mailer, clock Clock) *Notifier {
	logger := zap.NewNop()
	selector := NewSelector(taskSrc, userSrc, logger)
	dispatcher := NewDispatcher(mailer, logger, 2)
	m := metrics.NewNotifications(prometheus.NewRegistry())
	return NewNotifier(selector, dispatcher, clock, m, logger)
}

func TestNotifier_RunOnce(t *testing.T) {
	now := time.Date(2024, 3, 19, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	window := ComputeWindow(now)
	due := time.Date(2024, 3, 19, 18, 0, 0, 0, time.UTC)

	taskSrc := new(MockTaskSource)
	taskSrc.On("DueBetween", mock.Anything, window.Start, window.End).Return([]model.Task{
		{ID: 1, UserID: 10, Title: "A", DueDate: &due, Priority: model.PriorityHigh, Status: model.StatusPending},
		{ID: 2, UserID: 20, Title: "B", DueDate: &due, Priority: model.PriorityLow, Status: model.StatusPending},
		{ID: 3, UserID: 30, Title: "Orphan", DueDate: &due, Priority: model.PriorityLow, Status: model.StatusPending},
	}, nil)

	userSrc := new(MockUserSource)
	userSrc.On("GetByIDs", mock.Anything, []int64{10, 20, 30}).Return(map[int64]model.User{
		10: {ID: 10, Email: "a@test.local"},
		20: {ID: 20, Email: "b@test.local"},
	}, nil)

	// mail fails for A's owner but succeeds for B's owner
	mailer := newFakeMailer()
	mailer.failFor["a@test.local"] = errors.New("smtp rejected")

	n := newTestNotifier(taskSrc, userSrc, mailer, clock)
	report, err := n.RunOnce(context.Background())

	// the run completes normally, no error surfaces to the scheduler
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 2, mailer.attempts(), "both attempts must be recorded")
}

func TestNotifier_RunOnce_SelectionFailure(t *testing.T) {
	now := time.Date(2024, 3, 19, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	window := ComputeWindow(now)

	taskSrc := new(MockTaskSource)
	taskSrc.On("DueBetween", mock.Anything, window.Start, window.End).Return(nil, errors.New("connection refused"))

	mailer := newFakeMailer()
	n := newTestNotifier(taskSrc, new(MockUserSource), mailer, clock)

	_, err := n.RunOnce(context.Background())
	assert.Error(t, err, "batch-level failure must be reported to the scheduler")
	assert.Zero(t, mailer.attempts(), "nothing may be dispatched on a batch failure")
}

func TestNotifier_RunOnce_EmptySelection(t *testing.T) {
	now := time.Date(2024, 3, 19, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	window := ComputeWindow(now)

	taskSrc := new(MockTaskSource)
	taskSrc.On("DueBetween", mock.Anything, window.Start, window.End).Return([]model.Task{}, nil)

	n := newTestNotifier(taskSrc, new(MockUserSource), newFakeMailer(), clock)
	report, err := n.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.Selected)
	assert.Zero(t, report.Sent)
	assert.Zero(t, report.Failed)
}
