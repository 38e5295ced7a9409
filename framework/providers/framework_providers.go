package providers

import (
	"context"
	"io"
	"log/slog"

	"github.com/km-arc/go-planteuf/framework/config"
	"github.com/km-arc/go-planteuf/framework/factory"
	"github.com/km-arc/go-planteuf/framework/log"
	"github.com/km-arc/go-planteuf/framework/routing"
	"github.com/km-arc/go-planteuf/framework/sanitize"
	"github.com/km-arc/go-planteuf/framework/store"
	"github.com/km-arc/go-planteuf/framework/task"
)

// Keys of the framework registrations.
var (
	ConfigKey        = factory.KeyOf[*config.Config]()
	SanitizerKey     = factory.KeyOf[*sanitize.Sanitizer]()
	LogOutputKey     = factory.NamedKeyOf[io.WriteCloser]("log.output")
	LoggerKey        = factory.KeyOf[*slog.Logger]()
	StoreKey         = factory.KeyOf[*store.SQLiteStore]()
	DocumentStoreKey = factory.KeyOf[store.DocumentStore]()
	QueueKey         = factory.KeyOf[*task.Queue]()
	OrchestratorKey  = factory.KeyOf[*task.Orchestrator]()
	RouterKey        = factory.KeyOf[*routing.Router]()
)

// LoggerFor is the key of the component logger tagged name.
func LoggerFor(name string) factory.Key {
	return factory.NamedKeyOf[*slog.Logger](name)
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the configuration from .env files.
//
// Registers:
//   - *config.Config
type ConfigServiceProvider struct {
	factory.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(f *factory.Factory) {
	files := make([]factory.Value, len(p.EnvFiles))
	for i, name := range p.EnvFiles {
		files[i] = factory.Scalar(name)
	}
	f.Register(ConfigKey, factory.Typed(func(in factory.Input) (*config.Config, error) {
		var envFiles []string
		for _, name := range in.Args {
			envFiles = append(envFiles, name.(string))
		}
		return config.Load(envFiles...), nil
	}), files, nil)
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider registers the redactor and the loggers.
//
// Registers:
//   - *sanitize.Sanitizer          built from REDACT_KEYS
//   - io.WriteCloser "log.output"  the log file or stderr
//   - *slog.Logger                 the root logger
//   - *slog.Logger <name>          one per entry in Components
//
// Boot logs every instance the factory builds at debug level.
type LogServiceProvider struct {
	Components []string
}

// DefaultComponents are the component loggers registered when none are set.
var DefaultComponents = []string{"factory", "store", "task", "http"}

func (p *LogServiceProvider) Register(f *factory.Factory) {
	cfg := factory.RefTo(ConfigKey)

	f.Register(SanitizerKey, factory.Typed(func(in factory.Input) (*sanitize.Sanitizer, error) {
		c, err := factory.ArgAs[*config.Config](in, 0)
		if err != nil {
			return nil, err
		}
		return sanitize.New(sanitize.SanitizeKeys(c.Redact.Keys...)), nil
	}), []factory.Value{cfg}, nil)

	f.Register(LogOutputKey, func(in factory.Input) (any, error) {
		c, err := factory.ArgAs[*config.Config](in, 0)
		if err != nil {
			return nil, err
		}
		return log.Open(c.Log)
	}, []factory.Value{cfg}, nil)

	root := f.Register(LoggerKey, factory.Typed(func(in factory.Input) (*slog.Logger, error) {
		c, err := factory.ArgAs[*config.Config](in, 0)
		if err != nil {
			return nil, err
		}
		w, err := factory.ArgAs[io.WriteCloser](in, 1)
		if err != nil {
			return nil, err
		}
		redactor, err := factory.ArgAs[*sanitize.Sanitizer](in, 2)
		if err != nil {
			return nil, err
		}
		return log.New(w, c.Log, "", redactor), nil
	}), []factory.Value{cfg, factory.RefTo(LogOutputKey), factory.RefTo(SanitizerKey)}, nil)

	components := p.Components
	if len(components) == 0 {
		components = DefaultComponents
	}
	for _, name := range components {
		f.Register(LoggerFor(name), factory.Typed(func(in factory.Input) (*slog.Logger, error) {
			parent, err := factory.ArgAs[*slog.Logger](in, 0)
			if err != nil {
				return nil, err
			}
			return parent.With(slog.String("logger", name)), nil
		}), []factory.Value{factory.Ref(root)}, nil)
	}
}

func (p *LogServiceProvider) Boot(f *factory.Factory) error {
	logger, err := factory.Get[*slog.Logger](f, "factory")
	if err != nil {
		return err
	}
	f.AfterResolving(func(k factory.Key, _ any) {
		logger.Debug("instance built", slog.String("creatable", k.String()))
	})
	return nil
}

// ── StoreServiceProvider ──────────────────────────────────────────────────────

// StoreServiceProvider registers the SQLite document store. It is declared
// a store.DocumentStore, so unnamed DocumentStore requests reach it.
//
// Registers:
//   - *store.SQLiteStore
type StoreServiceProvider struct {
	factory.BaseProvider
}

func (p *StoreServiceProvider) Register(f *factory.Factory) {
	factory.Declare[*store.SQLiteStore, store.DocumentStore](f)

	f.Register(StoreKey, factory.Typed(func(in factory.Input) (*store.SQLiteStore, error) {
		c, err := factory.ArgAs[*config.Config](in, 0)
		if err != nil {
			return nil, err
		}
		logger, err := factory.NamedAs[*slog.Logger](in, "logger")
		if err != nil {
			return nil, err
		}
		return store.NewSQLiteStore(c.DB.Path,
			store.WithCacheTTL(c.DB.CacheTTL),
			store.WithLogger(logger),
		)
	}), []factory.Value{factory.RefTo(ConfigKey)}, map[string]factory.Value{
		"logger": factory.RefTo(LoggerFor("store")),
	})
}

// ── TaskServiceProvider ───────────────────────────────────────────────────────

// TaskServiceProvider registers the task queue and orchestrator. The
// orchestrator depends on whatever serves store.DocumentStore.
//
// Registers:
//   - *task.Queue
//   - *task.Orchestrator
type TaskServiceProvider struct {
	factory.BaseProvider
}

func (p *TaskServiceProvider) Register(f *factory.Factory) {
	queue := f.Register(QueueKey, factory.Typed(func(factory.Input) (*task.Queue, error) {
		return task.NewQueue(), nil
	}), nil, nil)

	f.Register(OrchestratorKey, factory.Typed(func(in factory.Input) (*task.Orchestrator, error) {
		q, err := factory.ArgAs[*task.Queue](in, 0)
		if err != nil {
			return nil, err
		}
		docs, err := factory.ArgAs[store.DocumentStore](in, 1)
		if err != nil {
			return nil, err
		}
		logger, err := factory.NamedAs[*slog.Logger](in, "logger")
		if err != nil {
			return nil, err
		}
		return task.NewOrchestrator(context.Background(), q, docs, task.WithLogger(logger))
	}), []factory.Value{factory.Ref(queue), factory.RefTo(DocumentStoreKey)}, map[string]factory.Value{
		"logger": factory.RefTo(LoggerFor("task")),
	})
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Registers:
//   - *routing.Router
type RoutingServiceProvider struct {
	factory.BaseProvider
}

func (p *RoutingServiceProvider) Register(f *factory.Factory) {
	f.Register(RouterKey, factory.Typed(func(in factory.Input) (*routing.Router, error) {
		logger, err := factory.ArgAs[*slog.Logger](in, 0)
		if err != nil {
			return nil, err
		}
		return routing.New(logger), nil
	}), []factory.Value{factory.RefTo(LoggerFor("http"))}, nil)
}
