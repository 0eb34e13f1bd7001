package core

import (
	"context"

	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// RunWithHooks runs body between the dependency's prelink and postlink
// hooks. A failing prelink skips body and postlink; a failing body skips
// postlink and its error is returned unchanged.
func RunWithHooks(ctx context.Context, dep *dependency.Config, params dependency.Values, body func(context.Context) error) error {
	if h := dep.Hooks.Prelink; h != nil {
		if err := h.Run(ctx, params); err != nil {
			return &HookExecutionError{Dependency: dep.Name, Phase: PhasePrelink, Err: err}
		}
	}

	if err := body(ctx); err != nil {
		return err
	}

	if h := dep.Hooks.Postlink; h != nil {
		if err := h.Run(ctx, params); err != nil {
			return &HookExecutionError{Dependency: dep.Name, Phase: PhasePostlink, Err: err}
		}
	}
	return nil
}
