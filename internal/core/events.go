package core

// Sale change operations published after a ledger mutation.
const (
	ChangeCreated     = "created"
	ChangeUpdated     = "updated"
	ChangeDeleted     = "deleted"
	ChangeItemAdded   = "item_added"
	ChangeItemUpdated = "item_updated"
	ChangeItemDeleted = "item_deleted"
)

// SaleChange identifies one committed mutation of the sales ledger.
type SaleChange struct {
	SaleID    string
	ItemID    string
	Operation string
}
