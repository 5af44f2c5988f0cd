// Package auth resolves which owner identities are privileged. Authentication
// itself happens upstream; this package only answers role questions about an
// already-identified owner.
package auth

import "sync"

// Identity is an authenticated caller.
type Identity struct {
	OwnerID    string
	OwnerLabel string
	Privileged bool
}

// Anonymous reports whether the identity carries no owner id.
func (i Identity) Anonymous() bool { return i.OwnerID == "" }

// CanModify reports whether the identity may change a registration held by
// ownerID.
func (i Identity) CanModify(ownerID string) bool {
	return i.Privileged || (!i.Anonymous() && i.OwnerID == ownerID)
}

// Directory is the set of privileged owner ids.
type Directory struct {
	mu     sync.RWMutex
	admins map[string]struct{}
}

// NewDirectory constructs a Directory granting privilege to admins.
func NewDirectory(admins []string) *Directory {
	d := &Directory{admins: make(map[string]struct{}, len(admins))}
	for _, id := range admins {
		if id != "" {
			d.admins[id] = struct{}{}
		}
	}
	return d
}

// IsPrivileged reports whether ownerID is an administrator.
func (d *Directory) IsPrivileged(ownerID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.admins[ownerID]
	return ok
}

// Resolve builds the Identity for an owner.
func (d *Directory) Resolve(ownerID, ownerLabel string) Identity {
	if ownerLabel == "" {
		ownerLabel = ownerID
	}
	return Identity{
		OwnerID:    ownerID,
		OwnerLabel: ownerLabel,
		Privileged: ownerID != "" && d.IsPrivileged(ownerID),
	}
}
