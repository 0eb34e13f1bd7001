package core

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/barysiuk/linkrow/internal/core/dependency"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

// Orchestrator links dependencies into the platforms of a host project. It
// lives in the core package so it can import both the dependency and
// platform sub-packages without circular dependencies.
type Orchestrator struct {
	logger *log.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger discards output.
func NewOrchestrator(logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{logger: logger}
}

// LinkAll links every dependency of the project, sorted by name, then
// copies the project's own assets into each project platform.
func (o *Orchestrator) LinkAll(ctx context.Context, cfg *ProjectConfig, opts LinkOptions) (*LinkResult, error) {
	var names []string
	if cfg.Dependencies != nil {
		var err error
		if names, err = cfg.Dependencies.Names(); err != nil {
			return nil, err
		}
	}
	result, linkErr := o.Link(ctx, names, cfg, opts)

	var assetErr error
	result.ProjectAssets, assetErr = o.copyProjectAssets(ctx, cfg, opts)
	return result, errors.Join(linkErr, assetErr)
}

// copyProjectAssets copies cfg.Assets once per project platform allowed by
// opts.Platforms. Platforms whose adapter cannot copy project assets are
// skipped.
func (o *Orchestrator) copyProjectAssets(ctx context.Context, cfg *ProjectConfig, opts LinkOptions) ([]ProjectAssetResult, error) {
	if len(cfg.Assets) == 0 {
		return nil, nil
	}
	var (
		results []ProjectAssetResult
		errs    []error
	)
	for _, p := range cfg.Project {
		if len(opts.Platforms) > 0 && !slices.Contains(opts.Platforms, p.Platform) {
			continue
		}
		copier, ok := cfg.Platforms[p.Platform].(platform.ProjectAssetCopier)
		if !ok {
			continue
		}
		logger := o.logger.With("platform", p.Platform)
		r := ProjectAssetResult{Platform: p.Platform}
		if err := copier.CopyProjectAssets(ctx, cfg.Assets, p); err != nil {
			r.Err = &AssetCopyError{Platform: p.Platform, Err: err}
			logger.Error("copying project assets failed", "err", err)
			errs = append(errs, r.Err)
		} else {
			r.Copied = true
			logger.Debug("project assets copied", "count", len(cfg.Assets))
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// Link links the named dependencies. Names are processed independently: a
// failing name does not stop the others unless opts.FailFast is set. The
// returned error joins every failure in request order; the result is always
// non-nil.
func (o *Orchestrator) Link(ctx context.Context, names []string, cfg *ProjectConfig, opts LinkOptions) (*LinkResult, error) {
	results := make([]DependencyResult, len(names))

	if opts.Concurrency > 1 && len(names) > 1 {
		var (
			g      errgroup.Group
			failed atomic.Bool
		)
		g.SetLimit(opts.Concurrency)
		for i, raw := range names {
			g.Go(func() error {
				if opts.FailFast && failed.Load() {
					results[i] = DependencyResult{Requested: raw, Skipped: true}
					return nil
				}
				results[i] = o.link(ctx, raw, cfg, opts)
				if results[i].Err != nil {
					failed.Store(true)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		stop := false
		for i, raw := range names {
			if stop {
				results[i] = DependencyResult{Requested: raw, Skipped: true}
				continue
			}
			results[i] = o.link(ctx, raw, cfg, opts)
			stop = opts.FailFast && results[i].Err != nil
		}
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return &LinkResult{Dependencies: results}, errors.Join(errs...)
}

// link runs the full pipeline for one requested name.
func (o *Orchestrator) link(ctx context.Context, raw string, cfg *ProjectConfig, opts LinkOptions) DependencyResult {
	result := DependencyResult{Requested: raw}
	logger := o.logger.With("dependency", raw)

	dep, err := Resolve(raw, cfg.Dependencies)
	if err != nil {
		logger.Error("resolve failed", "err", err)
		result.Err = err
		return result
	}
	result.Dependency = dep

	if _, tag := ParseDependencyName(raw); tagMismatch(tag, dep.Version) {
		logger.Warn("requested version not available; linking the installed one",
			"requested", tag, "installed", dep.Version)
	}

	targets := targetPlatforms(cfg, dep, opts.Platforms)
	if len(targets) == 0 {
		logger.Debug("no matching platforms")
	}

	params := dependency.ResolveValues(dep.Params, opts.Params)
	result.Err = RunWithHooks(ctx, dep, params, func(ctx context.Context) error {
		var errs []error
		for _, id := range targets {
			pr := o.linkPlatform(ctx, id, cfg, dep, params, logger.With("platform", id))
			result.Platforms = append(result.Platforms, pr)
			if pr.Err != nil {
				errs = append(errs, pr.Err)
			}
		}
		return errors.Join(errs...)
	})
	if result.Err != nil {
		logger.Error("link failed", "err", result.Err)
	}
	return result
}

// linkPlatform probes, registers and copies assets for one platform.
func (o *Orchestrator) linkPlatform(
	ctx context.Context,
	id platform.ID,
	cfg *ProjectConfig,
	dep *dependency.Config,
	params dependency.Values,
	logger *log.Logger,
) PlatformResult {
	pr := PlatformResult{Platform: id}
	fail := func(err error) PlatformResult {
		pr.Outcome = OutcomeFailed
		pr.Err = err
		return pr
	}

	lc, err := GetLinkConfig(id, cfg, dep, params)
	if err != nil {
		return fail(err)
	}
	project, _ := cfg.ProjectPlatform(id)

	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil {
		return fail(&RegistrationError{Dependency: dep.Name, Platform: id, Err: err})
	}
	if installed {
		logger.Info("already linked")
		pr.Outcome = OutcomeAlreadyInstalled
	} else {
		if err := lc.Register(ctx, dep); err != nil {
			return fail(&RegistrationError{Dependency: dep.Name, Platform: id, Err: err})
		}
		logger.Info("linked")
		pr.Outcome = OutcomeRegistered
	}

	// Assets are copied whether or not the dependency was already linked.
	copier, ok := lc.(platform.AssetCopier)
	if !ok || len(dep.Assets) == 0 {
		return pr
	}
	if err := copier.CopyAssets(ctx, dep.Assets, project); err != nil {
		pr.Err = &AssetCopyError{Dependency: dep.Name, Platform: id, Err: err}
		return pr
	}
	logger.Debug("assets copied", "count", len(dep.Assets))
	pr.AssetsCopied = true
	return pr
}

// GetLinkConfig asks the adapter registered for id to build a LinkConfig.
func GetLinkConfig(id platform.ID, cfg *ProjectConfig, dep *dependency.Config, params dependency.Values) (platform.LinkConfig, error) {
	adapter, ok := cfg.Platforms[id]
	if !ok || adapter == nil {
		return nil, &UnknownPlatformError{Platform: id}
	}
	project, ok := cfg.ProjectPlatform(id)
	if !ok {
		project = platform.Project{Platform: id, Root: cfg.Root}
	}
	return adapter.LinkConfig(project, dep, params), nil
}

// targetPlatforms returns, in project order, the platforms present in the
// project, declared by dep, backed by an adapter and allowed by filter.
func targetPlatforms(cfg *ProjectConfig, dep *dependency.Config, filter []platform.ID) []platform.ID {
	var targets []platform.ID
	for _, p := range cfg.Project {
		id := p.Platform
		if !dep.Supports(string(id)) {
			continue
		}
		if _, ok := cfg.Platforms[id]; !ok {
			continue
		}
		if len(filter) > 0 && !slices.Contains(filter, id) {
			continue
		}
		if slices.Contains(targets, id) {
			continue
		}
		targets = append(targets, id)
	}
	return targets
}
