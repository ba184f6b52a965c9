package registry

import "github.com/opsnest/adminshell/internal/model"

// BootstrapConfig carries the server bootstrap configuration named in
// spec.md §6: explicit provider/handler class lists plus the
// auto-discovery namespace prefixes.
type BootstrapConfig struct {
	Providers                  []string
	Handlers                   []string
	HandlerDiscoveryEnabled    bool
	HandlerDiscoveryNamespaces []string
}

// Bootstrap performs the one-time, ordered handler registration described
// in spec.md §4.8:
//  1. built-ins registered unconditionally (builtins is supplied by the
//     caller, since which handlers are "built-in" is a server-core
//     concern, not a registry concern);
//  2. each configured provider, registered via RegisterMany;
//  3. auto-discovered providers (duplicates vs. built-ins skipped);
//  4. each configured individual handler;
//  5. auto-discovered handlers (duplicates skipped);
//  6. the fallback, installed last.
func Bootstrap(reg *CommandRegistry, book *FactoryBook, cfg BootstrapConfig, builtins []model.Handler, fallback model.Handler) {
	reg.RegisterMany(builtins)

	for _, name := range cfg.Providers {
		if f, ok := book.Provider(name); ok {
			reg.RegisterMany(f().Handlers())
		}
	}

	if cfg.HandlerDiscoveryEnabled {
		for _, name := range book.ProviderNames(cfg.HandlerDiscoveryNamespaces) {
			f, _ := book.Provider(name)
			for _, h := range f().Handlers() {
				if reg.Has(h.Command()) {
					continue
				}
				reg.Register(h)
			}
		}
	}

	for _, name := range cfg.Handlers {
		if f, ok := book.HandlerNamed(name); ok {
			h, override := f()
			reg.Register(ApplyOverride(h, override))
		}
	}

	if cfg.HandlerDiscoveryEnabled {
		for _, name := range book.HandlerNames(cfg.HandlerDiscoveryNamespaces) {
			f, _ := book.HandlerNamed(name)
			h, override := f()
			wrapped := ApplyOverride(h, override)
			if reg.Has(wrapped.Command()) {
				continue
			}
			reg.Register(wrapped)
		}
	}

	if fallback != nil {
		reg.SetFallback(fallback)
	}
}
