// Package tools implements the agent's callable operations: a
// provider-neutral registry describing each tool's schema, and an executor
// that runs a requested call against the backing services and always hands
// a textual result back to the loop.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"go.uber.org/zap"
)

// Param describes one tool parameter in provider-neutral form.
type Param struct {
	Type        string   `json:"type"` // string, integer, number, boolean, array, object
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Descriptor is the immutable, provider-neutral description of a tool.
// Built once at startup; each provider adapter translates the JSON-Schema
// form to its native function declaration.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]Param
	Required    []string
}

// Schema renders the descriptor as an llm.ToolSchema with a JSON-Schema
// parameters object.
func (d Descriptor) Schema() llm.ToolSchema {
	properties := make(map[string]any, len(d.Parameters))
	for name, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop
	}
	required := d.Required
	if required == nil {
		required = []string{}
	}
	params, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	})
	return llm.ToolSchema{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  params,
	}
}

// Handler executes one tool call. Args are the decoded JSON arguments.
// A returned error is absorbed by the executor into the result text.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Registry holds the open set of tools in registration order.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	handlers map[string]Handler
	descs    map[string]Descriptor
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		descs:    make(map[string]Descriptor),
		logger:   logger,
	}
}

func (r *Registry) Register(desc Descriptor, fn Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if desc.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.handlers[desc.Name]; exists {
		return fmt.Errorf("tool %s already registered", desc.Name)
	}

	r.order = append(r.order, desc.Name)
	r.handlers[desc.Name] = fn
	r.descs[desc.Name] = desc
	r.logger.Info("tool registered", zap.String("name", desc.Name))
	return nil
}

// Describe returns all descriptors in registration order.
func (r *Registry) Describe() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descs[name])
	}
	return out
}

// Schemas returns all tool schemas in registration order.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descs[name].Schema())
	}
	return out
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
