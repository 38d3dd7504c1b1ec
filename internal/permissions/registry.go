package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Declaration pairs a protected resource with the capabilities it exposes.
// Framework modules declare their views at start-up; Sync reconciles the
// declarations against the store.
type Declaration struct {
	ViewMenu    string
	Permissions []string
}

type declarationRegistry struct {
	mu    sync.RWMutex
	views map[string]map[string]struct{}
}

var globalRegistry = &declarationRegistry{
	views: make(map[string]map[string]struct{}),
}

var (
	errEmptyViewMenu   = errors.New("permission registry: view menu name is required")
	errEmptyPermission = errors.New("permission registry: permission name is required")
)

// Register declares that the named view exposes the given permissions.
// Repeated registrations merge; duplicate permission names are collapsed.
func Register(viewMenu string, permissionNames ...string) error {
	viewMenu = strings.TrimSpace(viewMenu)
	if viewMenu == "" {
		return errEmptyViewMenu
	}

	cleaned := make([]string, 0, len(permissionNames))
	for _, name := range permissionNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w (view %q)", errEmptyPermission, viewMenu)
		}
		cleaned = append(cleaned, name)
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	perms, ok := globalRegistry.views[viewMenu]
	if !ok {
		perms = make(map[string]struct{})
		globalRegistry.views[viewMenu] = perms
	}
	for _, name := range cleaned {
		perms[name] = struct{}{}
	}
	return nil
}

// Declarations returns the registered view/permission pairs, sorted by view
// then permission name for deterministic reconciliation.
func Declarations() []Declaration {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make([]Declaration, 0, len(globalRegistry.views))
	for view, perms := range globalRegistry.views {
		names := make([]string, 0, len(perms))
		for name := range perms {
			names = append(names, name)
		}
		sort.Strings(names)
		out = append(out, Declaration{ViewMenu: view, Permissions: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewMenu < out[j].ViewMenu })
	return out
}

// reset clears registry entries. Intended for testing only.
func reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.views = make(map[string]map[string]struct{})
}
