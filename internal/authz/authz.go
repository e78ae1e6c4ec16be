// Package authz is the pure authorization engine: given the acting user and
// the owner of a resource it decides whether the action may proceed. It does
// no I/O and never loads resources itself; callers fetch the resource first
// (a missing resource is a not-found outcome, not an authorization one).
package authz

// Anonymous is the actor ID of an unauthenticated request.
const Anonymous uint = 0

// Decision is the outcome of an authorization check. The two deny variants
// are distinct on purpose: an anonymous caller is sent to sign-in, while an
// authenticated non-owner gets an explicit forbidden response.
type Decision int

const (
	// Allow permits the action.
	Allow Decision = iota
	// DenyAnonymous rejects because the actor is not authenticated.
	DenyAnonymous
	// DenyForbidden rejects because the authenticated actor does not own
	// the resource.
	DenyForbidden
)

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyAnonymous:
		return "deny:anonymous"
	case DenyForbidden:
		return "deny:forbidden"
	}
	return "deny:unknown"
}

// CanCreate decides whether the actor may create content (posts, comments).
// Any authenticated user may.
func CanCreate(actorID uint) Decision {
	if actorID == Anonymous {
		return DenyAnonymous
	}
	return Allow
}

// CanModify decides whether the actor may edit or delete a resource owned by
// ownerID. Only the owner may; the same rule covers post edits, post deletes
// and comment deletes.
func CanModify(actorID, ownerID uint) Decision {
	if actorID == Anonymous {
		return DenyAnonymous
	}
	if actorID != ownerID {
		return DenyForbidden
	}
	return Allow
}

// CanView decides whether a resource may be read. Post lists, post detail and
// comment lists are public.
func CanView() Decision {
	return Allow
}
