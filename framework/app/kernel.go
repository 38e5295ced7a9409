package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/km-arc/go-planteuf/framework/config"
	"github.com/km-arc/go-planteuf/framework/factory"
	gohttp "github.com/km-arc/go-planteuf/framework/http"
	"github.com/km-arc/go-planteuf/framework/providers"
	"github.com/km-arc/go-planteuf/framework/routing"
	"github.com/km-arc/go-planteuf/framework/store"
)

// ShutdownTimeout bounds how long Run waits for requests in flight.
const ShutdownTimeout = 10 * time.Second

// Application is the top-level application. It embeds the Factory and its
// ProviderRegistry so user code can register and resolve through it
// directly.
type Application struct {
	*factory.Factory
	Providers *factory.ProviderRegistry
}

// New creates the application on f (factory.Global() when nil) and
// registers the framework providers.
func New(f *factory.Factory, envFiles ...string) (*Application, error) {
	if f == nil {
		f = factory.Global()
	}
	registry := factory.NewProviderRegistry(f)

	app := &Application{
		Factory:   f,
		Providers: registry,
	}

	for _, p := range []factory.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: envFiles},
		&providers.LogServiceProvider{},
		&providers.StoreServiceProvider{},
		&providers.TaskServiceProvider{},
		&providers.RoutingServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider factory.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config.
func (a *Application) Config() (*config.Config, error) {
	return factory.Get[*config.Config](a.Factory)
}

// Logger resolves the root logger.
func (a *Application) Logger() (*slog.Logger, error) {
	return factory.Get[*slog.Logger](a.Factory)
}

// Router resolves *routing.Router.
func (a *Application) Router() (*routing.Router, error) {
	return factory.Get[*routing.Router](a.Factory)
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	logger, err := a.Logger()
	if err != nil {
		return err
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("app", cfg.App.Name),
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.App.Env),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the store and the log output if they were built.
func (a *Application) Close() error {
	var errs []error
	if a.Resolved(providers.StoreKey) {
		if s, err := factory.Get[*store.SQLiteStore](a.Factory); err == nil {
			errs = append(errs, s.Close())
		}
	}
	if a.Resolved(providers.LogOutputKey) {
		if w, err := factory.Get[io.WriteCloser](a.Factory, providers.LogOutputKey.Name); err == nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string {
	cfg, err := a.Config()
	if err != nil {
		return ""
	}
	return cfg.App.Env
}

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Environment() == "production" }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }
func (a *Application) Version() string    { return "0.1.0" }

// Controller is an embeddable base for HTTP controllers.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}
func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
