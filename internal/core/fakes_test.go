package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/barysiuk/linkrow/internal/core/dependency"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

// recorder collects events from fake hooks and adapters in call order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// count returns the number of events starting with prefix.
func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.all() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// index returns the position of the first event equal to e, or -1.
func (r *recorder) index(e string) int {
	for i, got := range r.all() {
		if got == e {
			return i
		}
	}
	return -1
}

// fakeAdapter is an in-memory platform adapter.
type fakeAdapter struct {
	id  platform.ID
	rec *recorder

	noAssets    bool  // LinkConfig does not implement AssetCopier
	registerErr error // returned by Register
	probeErr    error // returned by IsInstalled
	copyErr     error // returned by CopyAssets and CopyProjectAssets

	mu            sync.Mutex
	installed     map[string]bool
	copied        map[string][]string // dependency -> assets passed to CopyAssets
	projectCopied []string            // assets passed to CopyProjectAssets
}

func newFakeAdapter(id platform.ID, rec *recorder) *fakeAdapter {
	return &fakeAdapter{
		id:        id,
		rec:       rec,
		installed: map[string]bool{},
		copied:    map[string][]string{},
	}
}

func (a *fakeAdapter) ID() platform.ID     { return a.id }
func (a *fakeAdapter) DisplayName() string { return string(a.id) }

func (a *fakeAdapter) Detect(root string) (platform.Project, bool) {
	return platform.Project{Platform: a.id, Root: root, SourceDir: root + "/" + string(a.id)}, true
}

func (a *fakeAdapter) LinkConfig(_ platform.Project, dep *dependency.Config, _ dependency.Values) platform.LinkConfig {
	lc := &fakeLink{adapter: a, dep: dep}
	if a.noAssets {
		return lc
	}
	return &fakeCopyLink{fakeLink: lc}
}

func (a *fakeAdapter) CopyProjectAssets(_ context.Context, assets []string, _ platform.Project) error {
	a.rec.add("project-copy:%s", a.id)
	if a.copyErr != nil {
		return a.copyErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.projectCopied = assets
	return nil
}

func (a *fakeAdapter) markInstalled(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.installed[name] = true
}

func (a *fakeAdapter) copiedFor(name string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copied[name]
}

type fakeLink struct {
	adapter *fakeAdapter
	dep     *dependency.Config
}

func (l *fakeLink) IsInstalled(_ context.Context, _ platform.Project, dep *dependency.Config) (bool, error) {
	a := l.adapter
	a.rec.add("probe:%s:%s", a.id, dep.Name)
	if a.probeErr != nil {
		return false, a.probeErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.installed[dep.Name], nil
}

func (l *fakeLink) Register(_ context.Context, dep *dependency.Config) error {
	a := l.adapter
	a.rec.add("register:%s:%s", a.id, dep.Name)
	if a.registerErr != nil {
		return a.registerErr
	}
	a.markInstalled(dep.Name)
	return nil
}

type fakeCopyLink struct {
	*fakeLink
}

func (l *fakeCopyLink) CopyAssets(_ context.Context, assets []string, _ platform.Project) error {
	a := l.adapter
	a.rec.add("copy:%s", a.id)
	if a.copyErr != nil {
		return a.copyErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.copied[l.dep.Name] = assets
	return nil
}

// recordingHook records its phase and optionally fails.
func recordingHook(rec *recorder, phase, dep string, err error) dependency.Hook {
	return dependency.HookFunc(func(context.Context, dependency.Values) error {
		rec.add("%s:%s", phase, dep)
		return err
	})
}

// testProject builds a ProjectConfig whose project contains the given
// adapters' platforms, in order.
func testProject(adapters ...*fakeAdapter) *ProjectConfig {
	cfg := &ProjectConfig{
		Root:         "/project",
		Platforms:    map[platform.ID]platform.Adapter{},
		Dependencies: Dependencies{},
		Assets:       []string{},
	}
	for _, a := range adapters {
		p, _ := a.Detect(cfg.Root)
		cfg.Project = append(cfg.Project, p)
		cfg.Platforms[a.id] = a
	}
	return cfg
}

// testDependency declares a dependency supporting the given platforms.
func testDependency(name string, platforms ...platform.ID) *dependency.Config {
	dep := &dependency.Config{
		Name:      name,
		Version:   "1.0.0",
		Root:      "/project/modules/" + name,
		Assets:    []string{},
		Platforms: map[string]dependency.PlatformConfig{},
	}
	for _, p := range platforms {
		dep.Platforms[string(p)] = dependency.PlatformConfig{}
	}
	return dep
}
