package guard

import (
	"strings"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

// Rule restricts one path prefix to a set of roles.
type Rule struct {
	Prefix string
	Roles  []models.Role
}

// Policy is an ordered list of rules. The first rule whose prefix
// matches the request path decides the required roles; paths without a
// matching rule are unrestricted.
type Policy []Rule

// Allowed returns the roles permitted on the given path and whether the
// path is restricted at all.
func (p Policy) Allowed(path string) ([]models.Role, bool) {
	lower := strings.ToLower(path)

	for _, r := range p {
		if strings.HasPrefix(lower, r.Prefix) {
			return r.Roles, true
		}
	}

	return nil, false
}
