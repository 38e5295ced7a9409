package app

import (
	"errors"
	"log/slog"
	"net/http"

	frameworkapp "github.com/km-arc/go-planteuf/framework/app"
	"github.com/km-arc/go-planteuf/framework/http/validation"
	"github.com/km-arc/go-planteuf/framework/task"
)

// TaskController exposes the orchestrator over HTTP.
type TaskController struct {
	frameworkapp.Controller
	orchestrator *task.Orchestrator
	logger       *slog.Logger
}

// NewTaskController returns a controller backed by orchestrator.
func NewTaskController(orchestrator *task.Orchestrator, logger *slog.Logger) *TaskController {
	return &TaskController{orchestrator: orchestrator, logger: logger}
}

type createTaskInput struct {
	Event  string         `json:"event"`
	Data   map[string]any `json:"data"`
	Author string         `json:"author"`
}

type updateTaskInput struct {
	Status string `json:"status"`
	Log    string `json:"log"`
}

// Store handles POST /tasks.
func (c *TaskController) Store(w http.ResponseWriter, r *http.Request) {
	req, res := c.Request(r), c.Response(w)

	var in createTaskInput
	if err := req.Bind(&in); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	v := taskRules(validation.Make(map[string]string{
		"event":  in.Event,
		"author": in.Author,
	}, validation.Rules{
		"event":  "required|event",
		"author": "required|alpha_dash|max:64",
	}))
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	id, err := c.orchestrator.CreateTask(r.Context(), task.Event(in.Event), in.Data, in.Author)
	if err != nil {
		c.fail(res.Raw(), r, err)
		return
	}
	res.Created(map[string]any{"id": id})
}

// Show handles GET /tasks/{id}.
func (c *TaskController) Show(w http.ResponseWriter, r *http.Request) {
	req, res := c.Request(r), c.Response(w)

	t, err := c.orchestrator.GetTask(r.Context(), req.RouteParam("id"))
	if err != nil {
		c.fail(res.Raw(), r, err)
		return
	}
	res.Success(t)
}

// Update handles PATCH /tasks/{id}.
func (c *TaskController) Update(w http.ResponseWriter, r *http.Request) {
	req, res := c.Request(r), c.Response(w)
	id := req.RouteParam("id")

	var in updateTaskInput
	if err := req.Bind(&in); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	v := taskRules(validation.Make(map[string]string{
		"status": in.Status,
		"log":    in.Log,
	}, validation.Rules{
		"status": "required|status",
		"log":    "max:2000",
	}))
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	if err := c.orchestrator.UpdateTask(r.Context(), id, task.Status(in.Status), in.Log); err != nil {
		c.fail(res.Raw(), r, err)
		return
	}
	t, err := c.orchestrator.GetTask(r.Context(), id)
	if err != nil {
		c.fail(res.Raw(), r, err)
		return
	}
	res.Success(t)
}

// Queue handles GET /queue.
func (c *TaskController) Queue(w http.ResponseWriter, r *http.Request) {
	c.Response(w).Success(c.orchestrator.Queue().List())
}

// fail maps orchestrator errors to responses.
func (c *TaskController) fail(w http.ResponseWriter, r *http.Request, err error) {
	res := c.Response(w)
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		res.NotFound("Task not found.")
	case errors.Is(err, task.ErrInvalidStatus), errors.Is(err, task.ErrInvalidEvent):
		res.Error(http.StatusUnprocessableEntity, err.Error())
	default:
		c.logger.Error("task request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		res.ServerError()
	}
}

// taskRules adds the event and status rules to v.
func taskRules(v *validation.Validator) *validation.Validator {
	return v.
		Rule("event", func(field, value, _ string) string {
			if _, err := task.ParseEvent(value); err != nil {
				return "The selected " + field + " is invalid."
			}
			return ""
		}).
		Rule("status", func(field, value, _ string) string {
			if _, err := task.ParseStatus(value); err != nil {
				return "The selected " + field + " is invalid."
			}
			return ""
		})
}
