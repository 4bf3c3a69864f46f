package lifecycle

import (
	"fmt"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsStaff() bool { return models.IsStaff(a.Role) }

var roles = map[Action][]string{
	Approve:  {models.RoleApprover, models.RoleAdmin},
	Reject:   {models.RoleApprover, models.RoleAdmin},
	Complete: {models.RoleOperator, models.RoleAdmin},
}

// Authorize decides whether actor may take a on tx. Confirmation belongs
// to the owner of the transaction alone; every other action is role gated.
func Authorize(actor Actor, a Action, tx models.Transaction) error {
	if actor.UserID == "" {
		return models.ErrUnauthorized
	}
	if a == Confirm {
		if actor.UserID != tx.UserID {
			return fmt.Errorf("%w: only the requester can confirm receipt", models.ErrForbidden)
		}
		return nil
	}
	for _, r := range roles[a] {
		if actor.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q cannot %s", models.ErrForbidden, actor.Role, a)
}

// CanView reports whether actor may read tx.
func CanView(actor Actor, tx models.Transaction) bool {
	return actor.IsStaff() || actor.UserID == tx.UserID
}
