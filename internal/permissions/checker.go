package permissions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
	"github.com/gatehouse-io/gatehouse/pkg/metrics"
)

// Checker resolves effective permission sets and answers authorization
// queries. It is the decision primitive every protected endpoint calls.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs a permission checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	return &Checker{db: db}, nil
}

// EffectivePermissionViews returns the union of grantable units reachable
// through the user's direct roles and through roles of groups the user
// belongs to, collapsed by permission-view identity and ordered by id.
func (c *Checker) EffectivePermissionViews(ctx context.Context, userID uint) ([]models.PermissionView, error) {
	ctx = ensureContext(ctx)

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]models.PermissionView)
	collect := func(roles []models.Role) {
		for _, role := range roles {
			for _, pv := range role.PermissionViews {
				seen[pv.ID] = pv
			}
		}
	}

	collect(user.Roles)
	for _, group := range user.Groups {
		collect(group.Roles)
	}

	out := make([]models.PermissionView, 0, len(seen))
	for _, pv := range seen {
		out = append(out, pv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// HasPermission reports whether the named grantable unit is in the user's
// effective set. Unknown permission or view names answer false, not an error:
// asking about a capability that was never declared is an ordinary deny.
func (c *Checker) HasPermission(ctx context.Context, userID uint, permissionName, viewMenuName string) (bool, error) {
	ctx = ensureContext(ctx)

	permissionName = strings.TrimSpace(permissionName)
	viewMenuName = strings.TrimSpace(viewMenuName)
	if permissionName == "" || viewMenuName == "" {
		metrics.PermissionChecks.WithLabelValues("deny").Inc()
		return false, nil
	}

	views, err := c.EffectivePermissionViews(ctx, userID)
	if err != nil {
		metrics.PermissionChecks.WithLabelValues("error").Inc()
		return false, err
	}

	for _, pv := range views {
		if pv.Permission.Name == permissionName && pv.ViewMenu.Name == viewMenuName {
			metrics.PermissionChecks.WithLabelValues("allow").Inc()
			return true, nil
		}
	}

	metrics.PermissionChecks.WithLabelValues("deny").Inc()
	return false, nil
}

func (c *Checker) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := c.db.WithContext(ctx).
		Preload("Roles.PermissionViews.Permission").
		Preload("Roles.PermissionViews.ViewMenu").
		Preload("Groups.Roles.PermissionViews.Permission").
		Preload("Groups.Roles.PermissionViews.ViewMenu").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("permission checker: load user: %w", err)
	}
	return &user, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
