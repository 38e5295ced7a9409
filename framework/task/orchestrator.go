package task

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-planteuf/framework/log"
	"github.com/km-arc/go-planteuf/framework/store"
)

const instrumentationName = "github.com/km-arc/go-planteuf/framework/task"

// Orchestrator stores tasks and keeps the queue of unfinished ones in step
// with the store.
type Orchestrator struct {
	store  store.DocumentStore
	queue  *Queue
	logger *slog.Logger
	tracer trace.Tracer

	created metric.Int64Counter
	updated metric.Int64Counter
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTracer sets the tracer; the global provider is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithMeter sets the meter; the global provider is used otherwise.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) { o.meter = meter }
}

// NewOrchestrator builds an orchestrator and refreshes queue from the
// store: every task that isn't completed or failed is enqueued, oldest
// first.
func NewOrchestrator(ctx context.Context, queue *Queue, docs store.DocumentStore, opts ...Option) (*Orchestrator, error) {
	o := options{
		logger: log.Discard(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(&o)
	}

	created, err := o.meter.Int64Counter("planteuf.tasks.created",
		metric.WithDescription("Number of tasks created"),
	)
	if err != nil {
		return nil, err
	}
	updated, err := o.meter.Int64Counter("planteuf.tasks.updated",
		metric.WithDescription("Number of task status updates"),
	)
	if err != nil {
		return nil, err
	}

	orch := &Orchestrator{
		store:   docs,
		queue:   queue,
		logger:  o.logger,
		tracer:  o.tracer,
		created: created,
		updated: updated,
	}
	if err := orch.Refresh(ctx); err != nil {
		return nil, err
	}
	return orch, nil
}

// Queue returns the orchestrated queue.
func (o *Orchestrator) Queue() *Queue { return o.queue }

// Refresh enqueues every unfinished task in the store.
func (o *Orchestrator) Refresh(ctx context.Context) (err error) {
	ctx, span := o.tracer.Start(ctx, "task.refresh")
	defer func() { endSpan(span, err) }()

	o.logger.Info("refreshing task queue")
	docs, err := o.store.Find(ctx, store.CollectionTask,
		store.Query{"status": store.Query{store.OpNin: []Status{StatusCompleted, StatusFailed}}},
		store.Projection{store.FieldID: 1},
	)
	if err != nil {
		o.logger.Error("refresh failed", slog.String("error", err.Error()))
		return &OrchestratorError{Op: "refresh", Err: err}
	}

	added := 0
	for _, doc := range docs {
		if o.queue.Enqueue(doc.ID()) {
			added++
		}
	}
	span.SetAttributes(attribute.Int("task.enqueued", added))
	o.logger.Info("task queue refreshed", slog.Int("enqueued", added), slog.Int("queued", o.queue.Len()))
	return nil
}

// CreateTask stores a pending task and enqueues it.
func (o *Orchestrator) CreateTask(ctx context.Context, event Event, data map[string]any, author string) (id string, err error) {
	ctx, span := o.tracer.Start(ctx, "task.create",
		trace.WithAttributes(
			attribute.String("task.event", string(event)),
			attribute.String("task.author", author),
		),
	)
	defer func() { endSpan(span, err) }()

	o.logger.Info("creating task", slog.String("event", string(event)), slog.String("author", author))
	if data == nil {
		data = map[string]any{}
	}
	t := Task{
		Event:   event,
		Status:  StatusPending,
		Data:    data,
		Author:  author,
		History: []Status{StatusPending},
		Log:     []string{},
	}
	doc, err := store.Encode(t)
	if err != nil {
		return "", &OrchestratorError{Op: "create", Err: err}
	}

	id, err = o.store.InsertOne(ctx, store.CollectionTask, doc)
	if err != nil {
		o.logger.Error("failed to create task", slog.String("error", err.Error()))
		return "", &OrchestratorError{Op: "create", Err: err}
	}
	o.queue.Enqueue(id)
	o.created.Add(ctx, 1, metric.WithAttributes(attribute.String("task.event", string(event))))

	span.SetAttributes(attribute.String("task.id", id))
	o.logger.Info("task created", slog.String("task_id", id))
	return id, nil
}

// UpdateTask moves a task to status, appending it to the task's history
// and log to its log. Tasks reaching a terminal status leave the queue.
func (o *Orchestrator) UpdateTask(ctx context.Context, id string, status Status, entry string) (err error) {
	ctx, span := o.tracer.Start(ctx, "task.update",
		trace.WithAttributes(
			attribute.String("task.id", id),
			attribute.String("task.status", string(status)),
		),
	)
	defer func() { endSpan(span, err) }()

	o.logger.Info("updating task", slog.String("task_id", id), slog.String("status", string(status)))
	if !status.Valid() {
		return &OrchestratorError{Op: "update", TaskID: id, Err: ErrInvalidStatus}
	}

	t, err := o.load(ctx, id)
	if err != nil {
		return &OrchestratorError{Op: "update", TaskID: id, Err: err}
	}

	t.Status = status
	t.History = append(t.History, status)
	t.Log = append(t.Log, entry)

	if _, err := o.store.UpdateOne(ctx, store.CollectionTask, store.Document{
		store.FieldID: id,
		"status":      t.Status,
		"history":     t.History,
		"log":         t.Log,
	}); err != nil {
		o.logger.Error("failed to update task", slog.String("task_id", id), slog.String("error", err.Error()))
		return &OrchestratorError{Op: "update", TaskID: id, Err: err}
	}

	if status.Terminal() {
		o.queue.Dequeue(id)
	} else {
		o.queue.Enqueue(id)
	}
	o.updated.Add(ctx, 1, metric.WithAttributes(attribute.String("task.status", string(status))))
	o.logger.Info("task updated", slog.String("task_id", id))
	return nil
}

// GetTask returns the stored task.
func (o *Orchestrator) GetTask(ctx context.Context, id string) (t *Task, err error) {
	ctx, span := o.tracer.Start(ctx, "task.get", trace.WithAttributes(attribute.String("task.id", id)))
	defer func() { endSpan(span, err) }()

	t, err = o.load(ctx, id)
	if err != nil {
		return nil, &OrchestratorError{Op: "get", TaskID: id, Err: err}
	}
	return t, nil
}

func (o *Orchestrator) load(ctx context.Context, id string) (*Task, error) {
	doc, err := o.store.FindOne(ctx, store.CollectionTask, id, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrTaskNotFound
	}
	var t Task
	if err := store.Decode(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
