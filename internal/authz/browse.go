// Package authz implements the two independent authorization flows gating
// gallery access: the session-based browse decision and the network-based
// upload decision. They share nothing -- browsing trusts the session's
// allowed set, uploading trusts the peer's network identity.
package authz

// Wildcard in an allowed set grants access to every folder.
const Wildcard = "*"

// BrowsePermitted decides whether a session with the given allowed set may
// see the folder. Permitted when the folder identity itself is allowed, the
// wildcard is allowed, or the folder's resolved group is allowed. An empty
// or absent allowed set always denies; an empty group never matches.
func BrowsePermitted(allowed []string, identity, group string) bool {
	for _, a := range allowed {
		if a == Wildcard || a == identity {
			return true
		}
		if group != "" && a == group {
			return true
		}
	}
	return false
}
