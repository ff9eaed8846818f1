package bucket

import (
	"sort"
	"sync"
)

// Registry holds the named connection configurations and the default
// alias. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	connections  map[string]ConnectionConfig
	defaultAlias string
}

func NewRegistry() *Registry {
	return &Registry{
		connections:  map[string]ConnectionConfig{},
		defaultAlias: AliasDefault,
	}
}

// Register replaces all connections and the default alias. An empty
// defaultAlias means AliasDefault.
func (r *Registry) Register(connections map[string]ConnectionConfig, defaultAlias string) {
	if defaultAlias == "" {
		defaultAlias = AliasDefault
	}

	conns := make(map[string]ConnectionConfig, len(connections))
	for alias, cfg := range connections {
		cfg.Alias = alias
		conns[alias] = cfg
	}

	r.mu.Lock()
	r.connections = conns
	r.defaultAlias = defaultAlias
	r.mu.Unlock()
}

// Connection returns the configuration registered as alias.
func (r *Registry) Connection(alias string) (ConnectionConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.connections[alias]
	return cfg, ok
}

// FindByBucket returns the first connection, in alias order, whose bucket
// name is bucketName.
func (r *Registry) FindByBucket(bucketName string) (ConnectionConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, alias := range r.aliases() {
		if cfg := r.connections[alias]; cfg.BucketName == bucketName {
			return cfg, true
		}
	}
	return ConnectionConfig{}, false
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAlias
}

func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliases()
}

func (r *Registry) aliases() []string {
	aliases := make([]string, 0, len(r.connections))
	for alias := range r.connections {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
