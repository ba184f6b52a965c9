package model

import "strings"

// MapServiceLocator is a trivial ServiceLocator backed by a map, adequate
// for the demo server bootstrap and for tests; a real host application
// wires its own DI container behind the same interface.
type MapServiceLocator struct {
	services map[string]any
}

func NewMapServiceLocator() *MapServiceLocator {
	return &MapServiceLocator{services: map[string]any{}}
}

func (l *MapServiceLocator) Set(name string, v any) { l.services[name] = v }

func (l *MapServiceLocator) Get(name string) (any, bool) {
	v, ok := l.services[name]
	return v, ok
}

// BaseContext is the standard Context implementation: a container plus a
// nested configuration map resolved with dot-notation keys.
type BaseContext struct {
	container ServiceLocator
	config    map[string]any
}

func NewContext(container ServiceLocator, config map[string]any) *BaseContext {
	if config == nil {
		config = map[string]any{}
	}
	return &BaseContext{container: container, config: config}
}

func (c *BaseContext) Container() ServiceLocator { return c.container }
func (c *BaseContext) Config() map[string]any    { return c.config }

// Get resolves key against the config map, walking nested maps on each
// "." segment. Any missing segment, or a non-map value encountered before
// the path is exhausted, yields def.
func (c *BaseContext) Get(key string, def any) any {
	v, ok := lookupDotted(c.config, key)
	if !ok {
		return def
	}
	return v
}

func (c *BaseContext) Has(key string) bool {
	_, ok := lookupDotted(c.config, key)
	return ok
}

func lookupDotted(m map[string]any, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	segments := strings.Split(key, ".")
	var cur any = m
	for _, seg := range segments {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := asMap[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
