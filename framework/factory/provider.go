package factory

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one component.
//
// Register is called as soon as the provider is added and should only
// register creators. Boot runs after every provider has registered, so it
// may resolve anything.
//
//	type QueueProvider struct{ factory.BaseProvider }
//
//	func (p *QueueProvider) Register(f *factory.Factory) {
//	    f.Register(factory.KeyOf[*task.Queue](), newQueue, nil, nil)
//	}
type ServiceProvider interface {
	// Register adds creators to the factory. Do NOT resolve here.
	Register(f *Factory)

	// Boot is called after all providers are registered.
	Boot(f *Factory) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op Boot. Embed it and implement Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Factory) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers providers into a factory and boots them once.
type ProviderRegistry struct {
	factory    *Factory
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to f.
func NewProviderRegistry(f *Factory) *ProviderRegistry {
	return &ProviderRegistry{
		factory:    f,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op. A provider added after Boot is booted
// immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	provider.Register(r.factory)
	r.providers = append(r.providers, provider)

	if r.booted {
		return provider.Boot(r.factory)
	}
	return nil
}

// Boot calls Boot on every provider in registration order, stopping at the
// first error. Later calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.providers {
		if err := provider.Boot(r.factory); err != nil {
			return err
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }

// Factory returns the factory providers register into.
func (r *ProviderRegistry) Factory() *Factory { return r.factory }
