// Package app holds the HTTP surface of planteuf: the task controller and
// the routes it is mounted on.
package app

import (
	"log/slog"
	"net/http"

	"github.com/km-arc/go-planteuf/framework/factory"
	gohttp "github.com/km-arc/go-planteuf/framework/http"
	"github.com/km-arc/go-planteuf/framework/providers"
	"github.com/km-arc/go-planteuf/framework/routing"
	"github.com/km-arc/go-planteuf/framework/task"
)

// ControllerKey is the registration of the task controller.
var ControllerKey = factory.KeyOf[*TaskController]()

// RouteServiceProvider registers the task controller and mounts the routes
// when booted.
//
//	GET    /health
//	GET    /api/v1/queue
//	POST   /api/v1/tasks
//	GET    /api/v1/tasks/{id}
//	PATCH  /api/v1/tasks/{id}
type RouteServiceProvider struct{}

func (p *RouteServiceProvider) Register(f *factory.Factory) {
	f.Register(ControllerKey, factory.Typed(func(in factory.Input) (*TaskController, error) {
		orch, err := factory.ArgAs[*task.Orchestrator](in, 0)
		if err != nil {
			return nil, err
		}
		logger, err := factory.ArgAs[*slog.Logger](in, 1)
		if err != nil {
			return nil, err
		}
		return NewTaskController(orch, logger), nil
	}), []factory.Value{
		factory.RefTo(providers.OrchestratorKey),
		factory.RefTo(providers.LoggerFor("http")),
	}, nil)
}

func (p *RouteServiceProvider) Boot(f *factory.Factory) error {
	router, err := factory.Get[*routing.Router](f)
	if err != nil {
		return err
	}
	controller, err := factory.Get[*TaskController](f)
	if err != nil {
		return err
	}
	Routes(router, controller)
	return nil
}

// Routes mounts the API on r.
func Routes(r *routing.Router, c *TaskController) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"status": "ok"})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/queue", c.Queue)
		api.Post("/tasks", c.Store)
		api.Get("/tasks/{id}", c.Show)
		api.Patch("/tasks/{id}", c.Update)
	})
}
