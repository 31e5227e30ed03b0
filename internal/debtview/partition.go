// Package debtview derives the grouped, filtered, sorted debt columns
// shown to a user from the raw debt list and the active view state.
package debtview

import (
	"sort"
	"time"

	"github.com/mydebts/mydebts-be/internal/models"
)

// Mode selects which role the viewing user occupies: in creditor mode the
// counterparty of each debt is its debtor, in debtor mode its creditor.
type Mode string

const (
	ModeCreditor Mode = "creditor"
	ModeDebtor   Mode = "debtor"
)

// SortKey names one of the fixed sort orders. An unrecognized or empty
// key leaves the input order untouched.
type SortKey string

const (
	SortCreationDateAsc  SortKey = "creationDateAsc"
	SortCreationDateDesc SortKey = "creationDateDesc"
	SortAmountAsc        SortKey = "amountAsc"
	SortAmountDesc       SortKey = "amountDesc"
	SortDebtDateAsc      SortKey = "debtDateAsc"
	SortDebtDateDesc     SortKey = "debtDateDesc"
	SortDueDateAsc       SortKey = "dueDateAsc"
	SortDueDateDesc      SortKey = "dueDateDesc"
)

// Columns is the three-way status partition of a filtered, sorted debt list.
type Columns struct {
	Unpaid  []models.Debt `json:"unpaid"`
	Paid    []models.Debt `json:"paid"`
	Overdue []models.Debt `json:"overdue"`
}

// Option is one selectable counterparty in the filter dropdown.
type Option struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// otherParty returns the counterparty of the debt under the given mode.
func otherParty(d models.Debt, mode Mode) models.Party {
	if mode == ModeCreditor {
		return d.Debtor
	}
	return d.Creditor
}

// ownParty returns the side the viewer is expected to occupy under the
// given mode.
func ownParty(d models.Debt, mode Mode) models.Party {
	if mode == ModeCreditor {
		return d.Creditor
	}
	return d.Debtor
}

// Partition filters the raw debts down to those the current user views as
// mode-side party, optionally restricted to selected counterparties, and
// splits them by status into independently sorted columns.
//
// An empty currentUserID yields empty columns: nothing is shown before
// authentication. The input slice is never mutated.
func Partition(debts []models.Debt, mode Mode, key SortKey, selectedIDs []string, currentUserID string) Columns {
	empty := Columns{Unpaid: []models.Debt{}, Paid: []models.Debt{}, Overdue: []models.Debt{}}
	if currentUserID == "" {
		return empty
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var filtered []models.Debt
	for _, d := range debts {
		other := otherParty(d, mode)
		own := ownParty(d, mode)

		if own.ID() != currentUserID {
			continue // viewer is not on the expected side for this mode
		}
		if other.ID() == currentUserID {
			continue // degenerate self-debt
		}
		if len(selected) > 0 && !selected[other.ID()] {
			continue
		}
		filtered = append(filtered, d)
	}

	cols := empty
	for _, d := range filtered {
		switch d.Status {
		case models.StatusPaid:
			cols.Paid = append(cols.Paid, d)
		case models.StatusOverdue:
			cols.Overdue = append(cols.Overdue, d)
		default:
			cols.Unpaid = append(cols.Unpaid, d)
		}
	}
	cols.Unpaid = sortDebts(cols.Unpaid, key)
	cols.Paid = sortDebts(cols.Paid, key)
	cols.Overdue = sortDebts(cols.Overdue, key)
	return cols
}

// Counterparties lists the distinct counterparties present in the raw
// list for the given mode, first occurrence wins. It is independent of
// sorting and of any active counterparty selection, and is empty when no
// user is authenticated.
func Counterparties(debts []models.Debt, mode Mode, currentUserID string) []Option {
	opts := []Option{}
	if currentUserID == "" {
		return opts
	}
	seen := make(map[string]bool)
	for _, d := range debts {
		if ownParty(d, mode).ID() != currentUserID {
			continue
		}
		other := otherParty(d, mode)
		if other.IsZero() || other.ID() == currentUserID {
			continue
		}
		if seen[other.ID()] {
			continue
		}
		seen[other.ID()] = true
		opts = append(opts, Option{ID: other.ID(), Name: other.Name()})
	}
	return opts
}

// sortDebts returns a sorted copy of debts; the input is left untouched.
// Date fields are compared as instants, not lexically; a field that fails
// to parse compares equal to everything, matching the tolerant behavior
// of the list view.
func sortDebts(debts []models.Debt, key SortKey) []models.Debt {
	cmp := comparator(key)
	if cmp == nil {
		return debts
	}
	out := make([]models.Debt, len(debts))
	copy(out, debts)
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) })
	return out
}

func comparator(key SortKey) func(a, b models.Debt) bool {
	switch key {
	case SortCreationDateAsc:
		return func(a, b models.Debt) bool { return instant(a.CreatedAt) < instant(b.CreatedAt) }
	case SortCreationDateDesc:
		return func(a, b models.Debt) bool { return instant(b.CreatedAt) < instant(a.CreatedAt) }
	case SortAmountAsc:
		return func(a, b models.Debt) bool { return a.Amount.LessThan(b.Amount) }
	case SortAmountDesc:
		return func(a, b models.Debt) bool { return b.Amount.LessThan(a.Amount) }
	case SortDebtDateAsc:
		return func(a, b models.Debt) bool { return instant(a.DebtDate) < instant(b.DebtDate) }
	case SortDebtDateDesc:
		return func(a, b models.Debt) bool { return instant(b.DebtDate) < instant(a.DebtDate) }
	case SortDueDateAsc:
		return func(a, b models.Debt) bool { return instant(a.DueDate) < instant(b.DueDate) }
	case SortDueDateDesc:
		return func(a, b models.Debt) bool { return instant(b.DueDate) < instant(a.DueDate) }
	default:
		return nil
	}
}

// instant parses a timestamp or calendar date to unix milliseconds.
// Unparseable values map to 0 so they compare equal to each other.
func instant(s string) int64 {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UnixMilli()
	}
	return 0
}
