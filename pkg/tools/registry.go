// Package tools is the Tool Registry (C2): a static, process-wide mapping
// from tool name to the Executor that runs it. Grounded on the teacher's
// MCP client-factory pattern (pkg/mcp/executor.go) — a uniform execution
// contract resolved by name — generalized here to any tool, not only MCP
// servers, since concrete tool implementations are out of this module's
// core scope (§1) and are expected to register themselves at startup.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// ErrUnknownTool is returned by Registry.Get when no executor is
// registered under the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// Result is what a successful Executor.Execute call produces.
type Result struct {
	Output     any
	TokensUsed int
	Metadata   map[string]any
}

// Executor runs one step's tool call. Implementations must be safe for
// concurrent use — the Phase Executor invokes one Executor from multiple
// goroutines within a batch.
type Executor interface {
	Execute(ctx context.Context, step *model.Step, logID string) (Result, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, step *model.Step, logID string) (Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, step *model.Step, logID string) (Result, error) {
	return f(ctx, step, logID)
}

// Registry holds every tool executor registered at startup. Registration
// is process-wide and static after startup (§4.2) — Register is typically
// only called from wiring code in cmd/research-agent.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register binds name to executor, overwriting any prior binding.
func (r *Registry) Register(name string, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = executor
}

// Get resolves a tool name to its Executor, or ErrUnknownTool.
func (r *Registry) Get(toolName string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[toolName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}
	return exec, nil
}

// Names returns every registered tool name, in no particular order, for
// diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	return names
}
