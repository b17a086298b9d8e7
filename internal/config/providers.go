package config

import (
	"github.com/roach88/aiden/internal/registry"
)

// ProviderCategory is the registry category for provider identifiers.
const ProviderCategory registry.Category = "provider"

// DefaultProvider is used for every role that names no provider.
const DefaultProvider = "openai/gpt-4o-mini"

// Role names, used as registry keys under ProviderCategory.
const (
	RoleDefault      = "default"
	RoleManager      = "manager"
	RoleDataExpert   = "data_expert"
	RoleDataEngineer = "data_engineer"
	RoleTool         = "tool"
)

// Providers assigns a "vendor/model" provider identifier to each agent role.
// Unset roles fall back to Default.
type Providers struct {
	Default      string `yaml:"default" hcl:"default,optional"`
	Manager      string `yaml:"manager" hcl:"manager,optional"`
	DataExpert   string `yaml:"data_expert" hcl:"data_expert,optional"`
	DataEngineer string `yaml:"data_engineer" hcl:"data_engineer,optional"`
	Tool         string `yaml:"tool" hcl:"tool,optional"`
}

// NewProviders returns providers with every role defaulted.
func NewProviders(def string) Providers {
	p := Providers{Default: def}
	p.applyDefaults()
	return p
}

func (p *Providers) applyDefaults() {
	if p.Default == "" {
		p.Default = DefaultProvider
	}
	for _, role := range []*string{&p.Manager, &p.DataExpert, &p.DataEngineer, &p.Tool} {
		if *role == "" {
			*role = p.Default
		}
	}
}

// ByRole returns the providers keyed by role name.
func (p Providers) ByRole() map[string]string {
	return map[string]string{
		RoleDefault:      p.Default,
		RoleManager:      p.Manager,
		RoleDataExpert:   p.DataExpert,
		RoleDataEngineer: p.DataEngineer,
		RoleTool:         p.Tool,
	}
}

// Register stores every role's provider in r under ProviderCategory.
func (p Providers) Register(r *registry.Registry) error {
	values := make(map[string]any, 5)
	for role, provider := range p.ByRole() {
		values[role] = provider
	}
	return r.RegisterMultiple(ProviderCategory, values)
}
