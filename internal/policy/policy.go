// internal/policy/policy.go
package policy

import (
	"bankcards/internal/domain"
	"bankcards/internal/util"
)

// Operation names a card operation subject to access control.
type Operation int

const (
	ReadCard Operation = iota
	ReadBalance
	ListOwn
	ListAll
	CreateCard
	DeleteCard
	ForceBlock
	ForceActivate
	RequestBlock
	Transfer
	ManageUsers
)

var operationNames = map[Operation]string{
	ReadCard:      "read card",
	ReadBalance:   "read balance",
	ListOwn:       "list own cards",
	ListAll:       "list all cards",
	CreateCard:    "create card",
	DeleteCard:    "delete card",
	ForceBlock:    "block card",
	ForceActivate: "activate card",
	RequestBlock:  "request block",
	Transfer:      "transfer",
	ManageUsers:   "manage users",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown operation"
}

// Authorize decides whether caller may perform op on cards owned by owners.
// It has no side effects and must run before any state is mutated.
//
// owners carries the owner id of every card the operation touches: none for
// create and listings, one for single-card operations, source and destination
// for a transfer.
func Authorize(caller domain.Caller, op Operation, owners ...int64) error {
	switch op {
	case ReadCard, ReadBalance:
		if caller.IsAdmin() || ownsAll(caller, owners) {
			return nil
		}
	case ListOwn:
		return nil
	case ListAll, CreateCard, DeleteCard, ForceBlock, ForceActivate, ManageUsers:
		if caller.IsAdmin() {
			return nil
		}
	case RequestBlock:
		// Only the owner, administrators included.
		if ownsAll(caller, owners) {
			return nil
		}
	case Transfer:
		if len(owners) == 2 && ownsAll(caller, owners) {
			return nil
		}
	}
	return util.ErrAccessDenied
}

func ownsAll(caller domain.Caller, owners []int64) bool {
	if len(owners) == 0 {
		return false
	}
	for _, owner := range owners {
		if owner != caller.UserID {
			return false
		}
	}
	return true
}
