package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Debt statuses are assigned by the server, never computed by clients.
const (
	StatusUnpaid  = "unpaid"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// Party is one side of a debt. On the wire it is either a bare string
// (a freeform label, or a user id) or an embedded user object; exactly
// one of Label/User is set.
type Party struct {
	Label string
	User  *User
}

// PartyFromLabel wraps a freeform label or user id string.
func PartyFromLabel(label string) Party {
	return Party{Label: label}
}

// PartyFromUser wraps an embedded user reference.
func PartyFromUser(u User) Party {
	return Party{User: &u}
}

// ID resolves the party to a scalar id: the referenced user's id, or the
// bare label itself. A reference without an id resolves to "unknown".
func (p Party) ID() string {
	if p.User != nil {
		if p.User.ID == "" {
			return "unknown"
		}
		return p.User.ID
	}
	return p.Label
}

// Name resolves the party to a display name, falling back to "Unnamed"
// for a reference without one.
func (p Party) Name() string {
	if p.User != nil {
		if p.User.DisplayName == "" {
			return "Unnamed"
		}
		return p.User.DisplayName
	}
	return p.Label
}

// IsZero reports whether the party carries neither a label nor a user.
func (p Party) IsZero() bool {
	return p.User == nil && p.Label == ""
}

// MarshalJSON emits the wire shape: an object for a user reference, a
// plain string otherwise.
func (p Party) MarshalJSON() ([]byte, error) {
	if p.User != nil {
		return json.Marshal(p.User)
	}
	return json.Marshal(p.Label)
}

// UnmarshalJSON accepts both wire shapes.
func (p *Party) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		p.User = nil
		return json.Unmarshal(data, &p.Label)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	p.Label = ""
	p.User = &u
	return nil
}

// Debt represents money owed by the debtor to the creditor.
// DebtDate and DueDate carry calendar-date semantics ("2006-01-02");
// DueDate is empty when no due date was set.
type Debt struct {
	ID          string          `json:"_id"`
	Debtor      Party           `json:"debtor"`
	Creditor    Party           `json:"creditor"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DebtDate    string          `json:"debtDate"`
	DueDate     string          `json:"dueDate,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// Involves reports whether the given user id is on either side of the debt.
func (d Debt) Involves(userID string) bool {
	return d.Debtor.ID() == userID || d.Creditor.ID() == userID
}
