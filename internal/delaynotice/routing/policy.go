// Package routing decides which users may see a given delay notification.
// The fan-out is role-driven and evaluated at read time, so changing the
// audience table below retroactively changes who sees existing notifications.
package routing

import (
	"opsboard_backend/internal/workitem"

	"github.com/google/uuid"
)

// audience maps an owner role to the roles that see every notification with
// that owner role, regardless of ownership. Owner roles not listed here fall
// back to defaultAudience.
var audience = map[string][]string{
	workitem.RoleAdsManager: {
		workitem.RoleCustomerSuccess,
		workitem.RoleProjectManager,
		workitem.RoleCEO,
	},
}

// defaultAudience applies to owner roles without a dedicated entry. The owner
// always sees their own notifications in addition to this list.
var defaultAudience = []string{
	workitem.RoleProjectManager,
	workitem.RoleCEO,
}

// VisibleTo reports whether the viewer may see a notification owned by
// ownerID with ownerRole. Owners always see their own items. Ads managers see
// only their own; they are never in another owner's audience.
func VisibleTo(ownerID uuid.UUID, ownerRole string, viewerID uuid.UUID, viewerRole string) bool {
	if viewerID == ownerID {
		return true
	}

	roles, ok := audience[ownerRole]
	if !ok {
		roles = defaultAudience
	}
	for _, role := range roles {
		if viewerRole == role {
			return true
		}
	}
	return false
}
