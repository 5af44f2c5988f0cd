package quota

import (
	"errors"
	"fmt"
)

// Kind classifies why a proposed registration change was rejected.
type Kind int

const (
	KindInvalidCount Kind = iota + 1
	KindDuplicateName
	KindOwnerAlreadyRegistered
	KindOwnerQuotaExceeded
	KindGlobalCapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCount:
		return "InvalidCount"
	case KindDuplicateName:
		return "DuplicateName"
	case KindOwnerAlreadyRegistered:
		return "OwnerAlreadyRegistered"
	case KindOwnerQuotaExceeded:
		return "OwnerQuotaExceeded"
	case KindGlobalCapacityExceeded:
		return "GlobalCapacityExceeded"
	default:
		return "Unknown"
	}
}

// Sentinels matched by errors.Is against a *Rejection of the same kind.
var (
	ErrInvalidCount           = errors.New("invalid participant count")
	ErrDuplicateName          = errors.New("registration name already taken")
	ErrOwnerAlreadyRegistered = errors.New("owner already has a registration")
	ErrOwnerQuotaExceeded     = errors.New("owner participant quota exceeded")
	ErrGlobalCapacityExceeded = errors.New("event capacity exceeded")
)

var sentinels = map[Kind]error{
	KindInvalidCount:           ErrInvalidCount,
	KindDuplicateName:          ErrDuplicateName,
	KindOwnerAlreadyRegistered: ErrOwnerAlreadyRegistered,
	KindOwnerQuotaExceeded:     ErrOwnerQuotaExceeded,
	KindGlobalCapacityExceeded: ErrGlobalCapacityExceeded,
}

// Rejection is the reason a create or update was refused. Remaining is the
// number of spots still available for the owner or the event when Kind is
// KindOwnerQuotaExceeded or KindGlobalCapacityExceeded.
type Rejection struct {
	Kind      Kind
	Remaining int
	Detail    string
}

func (r *Rejection) Error() string {
	return r.Detail
}

func (r *Rejection) Is(target error) bool {
	return sentinels[r.Kind] == target
}

// AsRejection reports whether err is a Rejection and returns it.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func reject(kind Kind, remaining int, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Remaining: remaining, Detail: fmt.Sprintf(format, args...)}
}

// OwnerAlreadyRegistered builds the rejection for a non-privileged owner
// asking for a second registration.
func OwnerAlreadyRegistered() *Rejection {
	return reject(KindOwnerAlreadyRegistered, 0, "Non-admin users can only register one team")
}
