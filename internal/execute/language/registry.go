package language

import (
	"sort"
	"strings"

	pkgerrors "coderelay/pkg/errors"
)

// Config describes how one user-facing language is dispatched to the remote executor.
type Config struct {
	Name            string
	ExecutorID      string
	VersionSelector string
	Strategy        Strategy
}

// Registry resolves language names to their executor configuration.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	configs map[string]Config
}

// NewRegistry builds a registry keyed by the lower-cased language name.
// Later entries with the same name replace earlier ones.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{configs: make(map[string]Config, len(configs))}
	for _, cfg := range configs {
		key := strings.ToLower(strings.TrimSpace(cfg.Name))
		if key == "" {
			continue
		}
		cfg.Name = key
		r.configs[key] = cfg
	}
	return r
}

// DefaultRegistry returns the registry of languages supported by the JDoodle executor.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Config{Name: "python", ExecutorID: "python3", VersionSelector: "4", Strategy: Identity()},
		Config{Name: "javascript", ExecutorID: "nodejs", VersionSelector: "4", Strategy: Identity()},
		Config{Name: "cpp", ExecutorID: "cpp17", VersionSelector: "1", Strategy: ScaffoldIfNoEntryPoint(mainToken, cppPrelude)},
		Config{Name: "c", ExecutorID: "c", VersionSelector: "5", Strategy: ScaffoldIfNoEntryPoint(mainToken, cPrelude)},
		Config{Name: "java", ExecutorID: "java", VersionSelector: "4", Strategy: Identity()},
	)
}

// Resolve looks up a language case-insensitively.
// Unknown names yield a LanguageNotSupported error quoting the caller's input.
func (r *Registry) Resolve(name string) (Config, error) {
	if r != nil {
		if cfg, ok := r.configs[strings.ToLower(name)]; ok {
			return cfg, nil
		}
	}
	return Config{}, pkgerrors.Newf(pkgerrors.LanguageNotSupported, "Language '%s' is not supported", name)
}

// Names returns the supported language names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
