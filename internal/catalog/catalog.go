// Package catalog holds the static registry of execution environments a
// session can request. Descriptors are loaded once and read-only for the
// lifetime of the process.
package catalog

// Environment describes a launchable execution context.
type Environment struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Catalog is an immutable set of environment descriptors.
type Catalog struct {
	byID    map[string]Environment
	ordered []Environment
}

// New builds a catalog from the given descriptors, preserving order for
// listing. Later duplicates of an ID are ignored.
func New(envs ...Environment) *Catalog {
	c := &Catalog{byID: make(map[string]Environment, len(envs))}
	for _, env := range envs {
		if _, exists := c.byID[env.ID]; exists {
			continue
		}
		c.byID[env.ID] = env
		c.ordered = append(c.ordered, env)
	}
	return c
}

// Default returns the environments the gateway ships with.
func Default() *Catalog {
	return New(
		Environment{
			ID:          "kali-linux",
			DisplayName: "Kali Linux",
			Description: "Kali Linux with the standard penetration testing toolset",
		},
		Environment{
			ID:          "parrot-sec",
			DisplayName: "Parrot Security",
			Description: "Parrot OS security edition",
		},
		Environment{
			ID:          "ubuntu",
			DisplayName: "Ubuntu",
			Description: "Plain Ubuntu LTS shell",
		},
	)
}

// Get looks up an environment by ID.
func (c *Catalog) Get(id string) (Environment, bool) {
	env, ok := c.byID[id]
	return env, ok
}

// List returns all environments in catalog order.
func (c *Catalog) List() []Environment {
	out := make([]Environment, len(c.ordered))
	copy(out, c.ordered)
	return out
}
