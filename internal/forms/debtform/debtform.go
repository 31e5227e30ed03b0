// Package debtform implements the debt create/edit form: per-field and
// cross-field validation, the initial-value snapshot, and assembly of
// create and sparse update payloads.
package debtform

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mydebts/mydebts-be/internal/models"
)

// Side is the role the acting user occupies when creating a debt. In
// creditor side the counterparty becomes the debtor, and vice versa.
type Side string

const (
	SideCreditor Side = "creditor"
	SideDebtor   Side = "debtor"
)

// Initial is the snapshot of an existing debt an update form starts from.
// DebtDate stays fixed for the lifetime of the debt.
type Initial struct {
	Description string
	Amount      decimal.Decimal
	DebtDate    time.Time
	DueDate     *time.Time
}

// Errors holds every validation failure of the form as queryable state.
// Validation never panics and never returns Go errors; an invalid form is
// an ordinary value.
type Errors struct {
	CounterpartyRequired bool
	DescriptionRequired  bool
	AmountRequired       bool
	AmountNotPositive    bool
	DebtDateRequired     bool
	DueBeforeDebtDate    bool
	NoChanges            bool
}

// Any reports whether any rule failed.
func (e Errors) Any() bool {
	return e.CounterpartyRequired || e.DescriptionRequired ||
		e.AmountRequired || e.AmountNotPositive || e.DebtDateRequired ||
		e.DueBeforeDebtDate || e.NoChanges
}

// CreatePayload is the request body for creating a debt. The server
// assigns the id and status. Dates are plain calendar-date strings so no
// timezone drift can move a debt to a neighboring day.
type CreatePayload struct {
	Debtor      string          `json:"debtor"`
	Creditor    string          `json:"creditor"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DebtDate    string          `json:"debtDate"`
	DueDate     string          `json:"dueDate,omitempty"`
}

// UpdatePayload carries only the fields that differ from the snapshot;
// unchanged fields stay nil and are omitted from the wire entirely.
type UpdatePayload struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	DueDate     *string          `json:"dueDate,omitempty"`
}

// Form collects and validates the debt fields. A Form is either in create
// mode (all fields editable, counterparty and debt date required) or in
// update mode (counterparty and debt date fixed, at least one of the
// remaining fields must change before submission is allowed).
type Form struct {
	update  bool
	initial Initial

	counterparty string
	description  string
	amount       *decimal.Decimal
	debtDate     time.Time
	dueDate      *time.Time
}

// NewCreate returns a create-mode form with the debt date defaulted to
// today.
func NewCreate() *Form {
	return &Form{debtDate: time.Now()}
}

// NewUpdate returns an update-mode form seeded from the snapshot of the
// debt being edited.
func NewUpdate(initial Initial) *Form {
	f := &Form{}
	f.Reinit(initial)
	return f
}

// Reinit rebuilds the whole form state from a fresh snapshot, discarding
// any edits. Used when the form is handed a different debt to edit, so no
// validator can keep referencing a stale snapshot.
func (f *Form) Reinit(initial Initial) {
	amount := initial.Amount
	*f = Form{
		update:      true,
		initial:     initial,
		description: initial.Description,
		amount:      &amount,
		debtDate:    initial.DebtDate,
	}
	if initial.DueDate != nil {
		due := *initial.DueDate
		f.dueDate = &due
	}
}

func (f *Form) SetCounterparty(name string) { f.counterparty = name }
func (f *Form) SetDescription(desc string)  { f.description = desc }

// SetAmount sets the amount; pass nil to clear it.
func (f *Form) SetAmount(amount *decimal.Decimal) { f.amount = amount }

// SetDebtDate changes the debt date. It has no effect on an update form,
// where the debt date is fixed at creation.
func (f *Form) SetDebtDate(date time.Time) {
	if f.update {
		return
	}
	f.debtDate = date
}

// SetDueDate sets the optional due date; pass nil to clear it.
func (f *Form) SetDueDate(date *time.Time) { f.dueDate = date }

// Validate evaluates every field and cross-field rule and returns the
// full error state.
func (f *Form) Validate() Errors {
	var errs Errors

	if f.update {
		errs.NoChanges = !f.changed()
	} else {
		errs.CounterpartyRequired = f.counterparty == ""
		errs.DescriptionRequired = f.description == ""
		errs.AmountRequired = f.amount == nil
		errs.DebtDateRequired = f.debtDate.IsZero()
	}

	if f.amount != nil && !f.amount.IsPositive() {
		errs.AmountNotPositive = true
	}

	// Due date, when present, must fall on or after the effective debt
	// date; the comparison ignores time-of-day.
	if f.dueDate != nil && !f.debtDate.IsZero() {
		if dayOf(*f.dueDate).Before(dayOf(f.debtDate)) {
			errs.DueBeforeDebtDate = true
		}
	}

	return errs
}

// Valid reports whether submission is allowed.
func (f *Form) Valid() bool {
	return !f.Validate().Any()
}

// changed reports whether any of description, amount or due date differs
// from the snapshot. Dates compare by instant, nil equals nil.
func (f *Form) changed() bool {
	if f.description != f.initial.Description {
		return true
	}
	if f.amount == nil || !f.amount.Equal(f.initial.Amount) {
		return true
	}
	switch {
	case f.dueDate == nil && f.initial.DueDate == nil:
	case f.dueDate == nil || f.initial.DueDate == nil:
		return true
	case !f.dueDate.Equal(*f.initial.DueDate):
		return true
	}
	return false
}

// CreatePayload assembles the create request, placing the acting user on
// the side it occupies and the counterparty label on the other. It
// returns false when the form is invalid or in update mode; an invalid
// submission is a no-op.
func (f *Form) CreatePayload(actingUserID string, side Side) (CreatePayload, bool) {
	if f.update || !f.Valid() {
		return CreatePayload{}, false
	}

	p := CreatePayload{
		Description: f.description,
		Amount:      *f.amount,
		DebtDate:    dateString(f.debtDate),
	}
	if f.dueDate != nil {
		p.DueDate = dateString(*f.dueDate)
	}
	if side == SideCreditor {
		p.Creditor = actingUserID
		p.Debtor = f.counterparty
	} else {
		p.Debtor = actingUserID
		p.Creditor = f.counterparty
	}
	return p, true
}

// UpdatePayload assembles the sparse update request from the fields that
// differ from the snapshot. It returns false when the form is invalid or
// in create mode.
func (f *Form) UpdatePayload() (UpdatePayload, bool) {
	if !f.update || !f.Valid() {
		return UpdatePayload{}, false
	}

	var p UpdatePayload
	if f.description != f.initial.Description {
		desc := f.description
		p.Description = &desc
	}
	if f.amount != nil && !f.amount.Equal(f.initial.Amount) {
		amount := *f.amount
		p.Amount = &amount
	}
	if dueChanged(f.dueDate, f.initial.DueDate) && f.dueDate != nil {
		due := dateString(*f.dueDate)
		p.DueDate = &due
	}
	return p, true
}

func dueChanged(cur, initial *time.Time) bool {
	switch {
	case cur == nil && initial == nil:
		return false
	case cur == nil || initial == nil:
		return true
	default:
		return !cur.Equal(*initial)
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a calendar-date string as stored on debts.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// InitialFromDebt builds the update snapshot from a stored debt record.
func InitialFromDebt(d models.Debt) Initial {
	initial := Initial{
		Description: d.Description,
		Amount:      d.Amount,
	}
	if t, err := ParseDate(d.DebtDate); err == nil {
		initial.DebtDate = t
	}
	if d.DueDate != "" {
		if t, err := ParseDate(d.DueDate); err == nil {
			initial.DueDate = &t
		}
	}
	return initial
}
