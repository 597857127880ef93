package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/metrics"
)

// Notifier wires window -> selector -> dispatcher into one run.
type Notifier struct {
	selector   *Selector
	dispatcher *Dispatcher
	clock      Clock
	metrics    *metrics.Notifications
	logger     *zap.Logger
}

// Report итог одного запуска; по одному Outcome на каждую отобранную пару
type Report struct {
	RunID    string
	Window   Window
	Selected int
	Skipped  int
	Sent     int
	Failed   int
	Outcomes []Outcome
}

func NewNotifier(selector *Selector, dispatcher *Dispatcher, clock Clock, m *metrics.Notifications, logger *zap.Logger) *Notifier {
	return &Notifier{
		selector:   selector,
		dispatcher: dispatcher,
		clock:      clock,
		metrics:    m,
		logger:     logger,
	}
}

// RunOnce executes a full reminder run. Only a selection failure (store
// unreachable) returns an error; send failures are isolated per item
// and show up in the report.
func (n *Notifier) RunOnce(ctx context.Context) (Report, error) {
	started := n.clock.Now()
	report := Report{RunID: uuid.NewString()}
	n.metrics.RunStarted()

	report.Window = ComputeWindow(started)
	n.logger.Info("reminder run started",
		zap.String("run_id", report.RunID),
		zap.Time("window_start", report.Window.Start),
		zap.Time("window_end", report.Window.End),
	)

	reminders, skipped, err := n.selector.Select(ctx, report.Window)
	if err != nil {
		n.metrics.RunFailed()
		n.logger.Error("reminder run aborted",
			zap.String("run_id", report.RunID),
			zap.Error(err),
		)
		return report, err
	}
	report.Selected = len(reminders)
	report.Skipped = skipped
	n.metrics.OwnersSkipped(skipped)

	report.Outcomes = n.dispatcher.Dispatch(ctx, reminders)
	for _, o := range report.Outcomes {
		if o.Sent() {
			report.Sent++
			n.metrics.Sent()
		} else {
			report.Failed++
			n.metrics.SendFailed()
		}
	}
	n.metrics.RunDuration(n.clock.Now().Sub(started))

	n.logger.Info("reminder run finished",
		zap.String("run_id", report.RunID),
		zap.Int("selected", report.Selected),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// Job adapts the notifier for the scheduler.
func (n *Notifier) Job() Job {
	return func(ctx context.Context) error {
		_, err := n.RunOnce(ctx)
		return err
	}
}
