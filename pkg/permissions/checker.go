// Package permissions checks token permissions against the permission an
// endpoint requires, with support for wildcards.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "pos.*")
//   - "resource.action" - Specific action (e.g., "pos.stock.read")
package permissions

import (
	"strings"
)

// Permissions used by the allocation service
const (
	StockRead   = "pos.stock.read"
	OrderSubmit = "pos.order.submit"
)

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "pos.*" matches "pos.stock.read", "pos.order.submit", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}
