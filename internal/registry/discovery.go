package registry

import "github.com/opsnest/adminshell/internal/model"

// HandlerOverride carries the optional (command, description) override
// payload that spec.md's `#[AsShellHandler(command, description)]`
// attribute would have supplied in a reflective host. Go has no runtime
// attribute scan, so the same payload is attached explicitly at
// registration time (see SPEC_FULL.md §4.2) instead of being read off a
// struct tag via reflection.
type HandlerOverride struct {
	Command     string
	Description string
}

// withOverride wraps a Handler so Command()/Description() return the
// override's values while Handle() still delegates to the original —
// exactly the adapter spec.md §4.8 describes.
type withOverride struct {
	model.Handler
	override HandlerOverride
}

func (w withOverride) Command() string {
	if w.override.Command != "" {
		return w.override.Command
	}
	return w.Handler.Command()
}

func (w withOverride) Description() string {
	if w.override.Description != "" {
		return w.override.Description
	}
	return w.Handler.Description()
}

// ApplyOverride wraps h in the override adapter when override carries a
// non-empty Command or Description; otherwise it returns h unchanged.
func ApplyOverride(h model.Handler, override HandlerOverride) model.Handler {
	if override.Command == "" && override.Description == "" {
		return h
	}
	return withOverride{Handler: h, override: override}
}

// ProviderFactory and HandlerFactory are the Go analogue of a reflective
// class-map scan (spec.md §4.8 step 3/5, and SPEC_FULL.md §4.2): instead
// of scanning annotated classes at runtime, packages register their
// factories by name at init() time, and the bootstrap config lists the
// names it wants activated.
type ProviderFactory func() model.HandlerProvider
type HandlerFactory func() (model.Handler, HandlerOverride)

// FactoryBook is the name->factory registry that a discovery namespace
// scan would have populated dynamically; here it is built explicitly by
// each handler package's init().
type FactoryBook struct {
	providers map[string]ProviderFactory
	handlers  map[string]HandlerFactory
}

func NewFactoryBook() *FactoryBook {
	return &FactoryBook{
		providers: map[string]ProviderFactory{},
		handlers:  map[string]HandlerFactory{},
	}
}

func (b *FactoryBook) RegisterProvider(name string, f ProviderFactory) { b.providers[name] = f }
func (b *FactoryBook) RegisterHandler(name string, f HandlerFactory)   { b.handlers[name] = f }

func (b *FactoryBook) Provider(name string) (ProviderFactory, bool) {
	f, ok := b.providers[name]
	return f, ok
}

func (b *FactoryBook) HandlerNamed(name string) (HandlerFactory, bool) {
	f, ok := b.handlers[name]
	return f, ok
}

// ProviderNames and HandlerNames implement the "namespace prefix" side of
// discovery: a caller passes the configured prefixes and gets back every
// registered factory name that matches, standing in for a scan of
// annotated classes under those namespaces.
func (b *FactoryBook) ProviderNames(prefixes []string) []string {
	return filterPrefixes(keysOfProviders(b.providers), prefixes)
}

func (b *FactoryBook) HandlerNames(prefixes []string) []string {
	return filterPrefixes(keysOfHandlers(b.handlers), prefixes)
}

func keysOfProviders(m map[string]ProviderFactory) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func keysOfHandlers(m map[string]HandlerFactory) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func filterPrefixes(names []string, prefixes []string) []string {
	if len(prefixes) == 0 {
		return names
	}
	var out []string
	for _, n := range names {
		for _, p := range prefixes {
			if hasPrefix(n, p) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
