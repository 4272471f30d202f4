package agent

import (
	"strconv"
	"strings"
)

// ManagedPrefix starts every session name created by agentssh.
const ManagedPrefix = "agentssh"

// ManagedName returns agentssh_<id>_<unixSecs>.
func ManagedName(id string, unixSecs int64) string {
	return ManagedPrefix + "_" + id + "_" + strconv.FormatInt(unixSecs, 10)
}

// ParseManagedName splits a managed session name into agent ID and suffix.
// The ID is everything between the prefix and the last underscore, so IDs
// that contain underscores still parse but the split is a guess. The legacy
// agentssh.<id>.<suffix> form is also accepted.
func ParseManagedName(name string) (id, suffix string, ok bool) {
	if rest, found := strings.CutPrefix(name, ManagedPrefix+"_"); found {
		i := strings.LastIndex(rest, "_")
		if i <= 0 || i == len(rest)-1 {
			return "", "", false
		}
		return rest[:i], rest[i+1:], true
	}

	parts := strings.Split(name, ".")
	if len(parts) >= 3 && parts[0] == ManagedPrefix && parts[1] != "" && parts[2] != "" {
		return parts[1], parts[2], true
	}
	return "", "", false
}

// IsManaged reports whether agentssh created the session.
func IsManaged(name string) bool {
	_, _, ok := ParseManagedName(name)
	return ok
}

// ShortName is <id>_<suffix> for managed sessions and the raw name otherwise.
func ShortName(name string) string {
	id, suffix, ok := ParseManagedName(name)
	if !ok {
		return name
	}
	return id + "_" + suffix
}
