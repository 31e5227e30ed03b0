package debtview

import (
	"sync"

	"github.com/mydebts/mydebts-be/internal/models"
)

// View holds the live inputs of the derivation pipeline and pushes freshly
// computed Columns to its subscribers whenever any input changes. Each
// input change triggers exactly one synchronous recompute, so observers
// never see a partially updated state. A late subscriber immediately
// receives the most recent Columns instead of forcing another recompute.
type View struct {
	mu sync.Mutex

	debts         []models.Debt
	mode          Mode
	sortKey       SortKey
	selectedIDs   []string
	currentUserID string

	columns        Columns
	counterparties []Option

	nextSubID int
	subs      map[int]func(Columns, []Option)
}

// NewView creates a View with creditor mode, newest-first sorting, no
// counterparty filter and no authenticated user.
func NewView() *View {
	v := &View{
		mode:    ModeCreditor,
		sortKey: SortCreationDateDesc,
		subs:    make(map[int]func(Columns, []Option)),
	}
	v.recompute()
	return v
}

// SetDebts replaces the raw debt list.
func (v *View) SetDebts(debts []models.Debt) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.debts = debts
	v.recompute()
	v.notify()
}

// SetMode switches between creditor and debtor viewing.
func (v *View) SetMode(mode Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
	v.recompute()
	v.notify()
}

// SetSortKey changes the active sort order.
func (v *View) SetSortKey(key SortKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortKey = key
	v.recompute()
	v.notify()
}

// SetSelected replaces the counterparty filter selection; nil or empty
// means no filter.
func (v *View) SetSelected(ids []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectedIDs = ids
	v.recompute()
	v.notify()
}

// SetCurrentUser changes the authenticated user; an empty id empties the
// view.
func (v *View) SetCurrentUser(userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentUserID = userID
	v.recompute()
	v.notify()
}

// Columns returns the most recently computed partition.
func (v *View) Columns() Columns {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.columns
}

// Counterparties returns the most recently computed filter options.
func (v *View) Counterparties() []Option {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counterparties
}

// Subscribe registers fn and immediately replays the current state to it.
// The returned function cancels the subscription.
func (v *View) Subscribe(fn func(Columns, []Option)) func() {
	v.mu.Lock()
	id := v.nextSubID
	v.nextSubID++
	v.subs[id] = fn
	cols, opts := v.columns, v.counterparties
	v.mu.Unlock()

	fn(cols, opts)

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *View) recompute() {
	v.columns = Partition(v.debts, v.mode, v.sortKey, v.selectedIDs, v.currentUserID)
	v.counterparties = Counterparties(v.debts, v.mode, v.currentUserID)
}

func (v *View) notify() {
	for _, fn := range v.subs {
		fn(v.columns, v.counterparties)
	}
}
