package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/shotwall/shotwall/internal/identity"
)

// DenyReason classifies why an upload was refused.
type DenyReason string

const (
	// DenyBadAddress means the peer address did not parse as an IP.
	DenyBadAddress DenyReason = "bad_address"

	// DenyNotWhitelisted means the peer IP is outside every configured
	// network range.
	DenyNotWhitelisted DenyReason = "not_whitelisted"

	// DenyUnresolved means the IP was whitelisted but the identity
	// directory produced no username for it. Both checks must pass.
	DenyUnresolved DenyReason = "unresolved_identity"
)

// UploadDecision is the outcome of the upload authorization chain.
type UploadDecision struct {
	// Allowed is true only when the peer passed both the whitelist check
	// and identity resolution.
	Allowed bool

	// Identity is the resolved destination folder, set only on allow.
	Identity string

	// Reason explains a deny.
	Reason DenyReason
}

// Whitelist is a set of network ranges permitted to upload without a session.
type Whitelist struct {
	networks []*net.IPNet
}

// NewWhitelist parses CIDR strings into a whitelist. Invalid entries are
// rejected outright -- a silently skipped range would admit nobody it was
// meant to admit.
func NewWhitelist(cidrs []string) (*Whitelist, error) {
	w := &Whitelist{}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parsing whitelist entry %q: %w", cidr, err)
		}
		w.networks = append(w.networks, network)
	}
	return w, nil
}

// Contains reports whether ip falls inside at least one configured range.
func (w *Whitelist) Contains(ip net.IP) bool {
	for _, network := range w.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// UploadGate runs the upload authorization chain:
//
//	RECEIVED → whitelist check → identity resolution → ALLOW/DENY
//
// No session is involved; this is a distinct trust boundary from browsing.
type UploadGate struct {
	whitelist *Whitelist
	resolver  identity.Resolver
}

// NewUploadGate creates the gate from a parsed whitelist and a resolver.
func NewUploadGate(whitelist *Whitelist, resolver identity.Resolver) *UploadGate {
	return &UploadGate{whitelist: whitelist, resolver: resolver}
}

// Decide evaluates both checks for the peer address. Every deny is logged
// with the offending peer so operators can spot misconfigured devices. The
// caller must not create any folder before this returns Allowed.
func (g *UploadGate) Decide(ctx context.Context, peerIP string) UploadDecision {
	ip := net.ParseIP(peerIP)
	if ip == nil {
		return g.deny(peerIP, DenyBadAddress)
	}

	if !g.whitelist.Contains(ip) {
		return g.deny(peerIP, DenyNotWhitelisted)
	}

	username, ok := g.resolver.UsernameByIP(ctx, peerIP)
	if !ok {
		return g.deny(peerIP, DenyUnresolved)
	}

	return UploadDecision{Allowed: true, Identity: username}
}

// deny logs and builds a refusal.
func (g *UploadGate) deny(peerIP string, reason DenyReason) UploadDecision {
	slog.Warn("upload denied",
		slog.String("peer", peerIP),
		slog.String("reason", string(reason)),
	)
	return UploadDecision{Allowed: false, Reason: reason}
}
