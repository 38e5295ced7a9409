// Package factory provides a process-wide, type-keyed registry of lazily
// built singletons.
//
// # Overview
//
// A registration pairs a Key (a Go type plus an optional name) with a
// Creator: a constructor and the arguments to call it with. Arguments may
// reference other registrations, so the set of creators forms a dependency
// graph that the factory walks on demand. Every built instance is cached
// under its key until its recipe, or a recipe it depends on, changes.
//
// # Keys
//
//	factory.KeyOf[*task.Queue]()                      // unnamed
//	factory.NamedKeyOf[store.DocumentStore]("archive") // named
//
// # Registering
//
//	f := factory.Global()
//
//	queue := f.Register(factory.KeyOf[*task.Queue](),
//	    factory.Typed(func(factory.Input) (*task.Queue, error) { return task.NewQueue(), nil }),
//	    nil, nil)
//
//	f.Register(factory.KeyOf[*task.Orchestrator](), newOrchestrator,
//	    []factory.Value{factory.Ref(queue)},
//	    map[string]factory.Value{"store": factory.RefTo(factory.KeyOf[store.DocumentStore]())})
//
// Argument values are Scalar, Ref/RefTo, List, Set or Map; references nested
// in containers are resolved too.
//
// # Resolving
//
//	orch, err := factory.Get[*task.Orchestrator](f)
//	archive, err := factory.Get[store.DocumentStore](f, "archive")
//	all, err := factory.GetAll[store.DocumentStore](f)
//
// An unnamed request with no exact registration falls back to declared
// subtypes:
//
//	factory.Declare[*store.SQLiteStore, store.DocumentStore](f)
//
// If more than one registration qualifies the request fails with
// ErrAmbiguousRegistration, listing the names to pick from.
//
// # Errors
//
// Failures are *Error values matching one of ErrNotRegistered,
// ErrAmbiguousRegistration, ErrInstantiationFailed or ErrCyclicDependency
// through errors.Is. Constructor failures, including panics, stay reachable
// through errors.As / errors.Unwrap.
//
// # Introspection
//
//	f.ListKeys(factory.TypeOf[store.DocumentStore](), true) // named keys only
//	f.Visit(factory.VisitorFunc(func(k factory.Key, c *factory.Creator) {
//	    fmt.Println(k, c)
//	}))
//
// Creator descriptions never print named argument values, so secrets passed
// by name stay out of logs.
//
// # Service Providers
//
//	registry := factory.NewProviderRegistry(f)
//	_ = registry.Register(&providers.StoreProvider{})
//	_ = registry.Boot()
package factory
