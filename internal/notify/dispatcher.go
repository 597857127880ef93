package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/model"
)

// Mailer is the outbound mail collaborator. Implementations own their
// timeouts; the dispatcher treats any error the same way.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Outcome записывается ровно один раз на каждую пару (задача, пользователь)
type Outcome struct {
	TaskID int64
	Title  string
	Email  string
	Err    error
}

func (o Outcome) Sent() bool { return o.Err == nil }

var reminderTmpl = template.Must(template.New("reminder").Parse(`<h2>Task Due Tomorrow</h2>
<p>Your task "{{.Title}}" is due on {{.Due}}.</p>
<h3>Task Details:</h3>
<ul>
  <li><strong>Description:</strong> {{.Description}}</li>
  <li><strong>Priority:</strong> {{.Priority}}</li>
  <li><strong>Status:</strong> {{.Status}}</li>
</ul>
<p>Please complete the task before the due date.</p>`))

// Dispatcher submits one reminder per pair through the mailer. One
// pair's failure never affects the others; a failed send is only
// logged and recorded, the next daily run picks the task up again.
type Dispatcher struct {
	mailer  Mailer
	logger  *zap.Logger
	workers int
}

func NewDispatcher(mailer Mailer, logger *zap.Logger, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		mailer:  mailer,
		logger:  logger,
		workers: workers,
	}
}

// Dispatch processes the pairs with a bounded worker pool. Outcomes come
// back in input order, one per pair. On context cancellation the not yet
// started pairs are recorded as failed with the context error.
func (d *Dispatcher) Dispatch(ctx context.Context, items []model.Reminder) []Outcome {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = d.dispatchOne(ctx, items[idx])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(items); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(items); i++ {
		outcomes[i] = Outcome{
			TaskID: items[i].Task.ID,
			Title:  items[i].Task.Title,
			Email:  items[i].User.Email,
			Err:    ctx.Err(),
		}
	}
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, item model.Reminder) Outcome {
	out := Outcome{
		TaskID: item.Task.ID,
		Title:  item.Task.Title,
		Email:  item.User.Email,
	}

	subject := "Todo Reminder: " + item.Task.Title
	body, err := renderReminder(item.Task)
	if err != nil {
		out.Err = fmt.Errorf("render reminder: %w", err)
		d.logger.Error("failed to render notification email",
			zap.Int64("task_id", out.TaskID),
			zap.Error(err),
		)
		return out
	}

	if err := d.mailer.Send(ctx, item.User.Email, subject, body); err != nil {
		out.Err = fmt.Errorf("send reminder: %w", err)
		d.logger.Error("failed to send notification email",
			zap.Int64("task_id", out.TaskID),
			zap.String("to", item.User.Email),
			zap.Error(err),
		)
		return out
	}

	d.logger.Info("notification email sent",
		zap.Int64("task_id", out.TaskID),
		zap.String("to", item.User.Email),
		zap.String("title", item.Task.Title),
	)
	return out
}

func renderReminder(t model.Task) (string, error) {
	description := t.Description
	if description == "" {
		description = "No description"
	}
	due := "the due date"
	if t.DueDate != nil {
		due = t.DueDate.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	err := reminderTmpl.Execute(&buf, struct {
		Title, Due, Description, Priority, Status string
	}{
		Title:       t.Title,
		Due:         due,
		Description: description,
		Priority:    t.Priority,
		Status:      t.Status,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
