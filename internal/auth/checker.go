package auth

// Permission codes gating the mutating operations.
const (
	PermSaleCreate         = "sale:create"
	PermSaleTransition     = "sale:transition"
	PermSaleDelete         = "sale:delete"
	PermPurchaseCreate     = "purchase:create"
	PermPurchaseDeactivate = "purchase:deactivate"
	PermPurchaseReactivate = "purchase:reactivate"
	PermPurchaseDelete     = "purchase:delete"
)

// Checker is the permission predicate consulted before every mutation.
type Checker interface {
	Has(actor Actor, code string) bool
}

// SetChecker grants whatever the actor's resolved permission set contains,
// with admin as a blanket role.
type SetChecker struct{}

func (SetChecker) Has(actor Actor, code string) bool {
	if actor.Role == "admin" {
		return true
	}
	for _, p := range actor.Permissions {
		if p == code {
			return true
		}
	}
	return false
}
