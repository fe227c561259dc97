package auth

import (
	"strings"
)

// RoleAdmin is the role claim that unlocks the provider configuration surface
const RoleAdmin = "ADMIN"

// Identity holds the validated user claims for an authenticated session
type Identity struct {
	Username string
	Email    string
	Name     string
	Roles    []string
}

// HasRole reports whether the identity carries the given role claim
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DeriveIdentity fills the gaps the validation endpoint leaves open:
// a missing email falls back to an @-containing username, and a missing
// display name is derived from the email's local part ("jane.doe" becomes
// "Jane Doe"). When no @-containing identifier exists the name stays empty.
func DeriveIdentity(username, email, name string, roles []string) Identity {
	id := Identity{
		Username: username,
		Email:    email,
		Name:     name,
		Roles:    append([]string(nil), roles...),
	}

	if id.Email == "" && strings.Contains(username, "@") {
		id.Email = username
	}

	if id.Name == "" {
		base := email
		if base == "" {
			base = username
		}
		if at := strings.Index(base, "@"); at > 0 {
			id.Name = titleFromLocalPart(base[:at])
		}
	}

	return id
}

// titleFromLocalPart turns "jane.doe" into "Jane Doe": split on dots,
// capitalize the first character of each segment, join with spaces
func titleFromLocalPart(local string) string {
	segments := strings.Split(local, ".")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		segments[i] = strings.ToUpper(seg[:1]) + seg[1:]
	}
	return strings.Join(segments, " ")
}
