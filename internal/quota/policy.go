// Package quota evaluates registration changes against the per-team,
// per-owner and event-wide participant caps. Evaluation is pure: it reads a
// snapshot and never mutates anything.
package quota

import (
	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

// Proposal describes a create (UpdateID == 0) or an update of UpdateID.
type Proposal struct {
	Name     string
	OwnerID  string
	Count    int
	UpdateID int64
}

func (p Proposal) isUpdate() bool { return p.UpdateID != 0 }

// Policy holds the fixed per-team and per-owner caps.
type Policy struct {
	MaxTeamSize  int
	MaxOwnerSize int
}

// DefaultPolicy caps both a team and an owner at model.MaxTeamSize.
func DefaultPolicy() Policy {
	return Policy{MaxTeamSize: model.MaxTeamSize, MaxOwnerSize: model.MaxTeamSize}
}

// Evaluate checks p against existing registrations and maxCapacity.
// It returns nil when the change is admitted, otherwise a *Rejection.
//
// On update the registration being changed is left out of both the owner
// and the event totals, so only its proposed count is counted.
func (pol Policy) Evaluate(existing []model.Registration, p Proposal, maxCapacity int) error {
	if p.Count < 1 || p.Count > pol.MaxTeamSize {
		return reject(KindInvalidCount, 0,
			"Participant count must be between 1 and %d", pol.MaxTeamSize)
	}

	key := model.NameKey(p.Name)
	ownerTotal, grandTotal := 0, 0
	for _, reg := range existing {
		if p.isUpdate() && reg.ID == p.UpdateID {
			continue
		}
		if !p.isUpdate() && model.NameKey(reg.Name) == key {
			return reject(KindDuplicateName, 0, "A registration with this name already exists")
		}
		if reg.OwnerID == p.OwnerID {
			ownerTotal += reg.Count
		}
		grandTotal += reg.Count
	}

	if ownerTotal+p.Count > pol.MaxOwnerSize {
		return reject(KindOwnerQuotaExceeded, pol.MaxOwnerSize-ownerTotal,
			"User already has %d participants registered. Cannot exceed the maximum of %d participants per user.",
			ownerTotal, pol.MaxOwnerSize)
	}

	if grandTotal+p.Count > maxCapacity {
		format := "Cannot register %d participants. Only %d spots available."
		if p.isUpdate() {
			format = "Cannot update to %d participants. Only %d spots available."
		}
		return reject(KindGlobalCapacityExceeded, maxCapacity-grandTotal, format, p.Count, maxCapacity-grandTotal)
	}

	return nil
}
