package order

type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	// RoleSystem is used for transitions the service triggers itself.
	RoleSystem Role = "system"
)

// IsStaff reports whether the role acts on behalf of a shop.
func (r Role) IsStaff() bool { return r == RoleWorker || r == RoleOwner || r == RoleAdmin }

var (
	staff         = []Role{RoleWorker, RoleOwner, RoleAdmin}
	staffOrSystem = []Role{RoleWorker, RoleOwner, RoleAdmin, RoleSystem}
)

// transitions maps current -> next -> roles allowed to trigger it.
var transitions = map[Status]map[Status][]Role{
	StatusPending: {
		StatusAccepted:  staff,
		StatusCancelled: {RoleCustomer, RoleWorker, RoleOwner, RoleAdmin},
	},
	StatusAccepted: {
		StatusPreparing: staff,
		StatusCancelled: staff,
	},
	StatusPreparing: {StatusReady: staff},
	StatusReady:     {StatusPickedUp: staff},
	StatusPickedUp:  {StatusCompleted: staffOrSystem},
}

// CanTransition reports whether to is a legal next state of from for anyone.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedNext lists the legal next states of from.
func AllowedNext(from Status) []Status {
	out := make([]Status, 0, 2)
	for _, st := range allStatuses {
		if CanTransition(from, st) {
			out = append(out, st)
		}
	}
	return out
}

// Authorize checks the table for (from, to) and the actor's role.
func Authorize(from, to Status, role Role) error {
	roles, ok := transitions[from][to]
	if !ok {
		return ErrIllegalTransition
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}
