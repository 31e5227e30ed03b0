package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mydebts/mydebts-be/internal/cache"
	"github.com/mydebts/mydebts-be/internal/forms/debtform"
	"github.com/mydebts/mydebts-be/internal/models"
	"github.com/mydebts/mydebts-be/internal/websocket"
)

// ErrNotFound is returned when a record does not exist or the caller is
// not a party to it.
var ErrNotFound = errors.New("not found")

// ErrNoChanges is returned when an update payload carries no fields.
var ErrNoChanges = errors.New("no changes")

// DebtServiceProvider defines the interface for debt services.
type DebtServiceProvider interface {
	ListForUser(ctx context.Context, userID string) ([]models.Debt, error)
	GetByID(ctx context.Context, userID, debtID string) (models.Debt, error)
	Create(ctx context.Context, userID string, payload debtform.CreatePayload) (models.Debt, error)
	Update(ctx context.Context, userID, debtID string, payload debtform.UpdatePayload) (models.Debt, error)
	Delete(ctx context.Context, userID, debtID string) error
	MarkPaid(ctx context.Context, userID, debtID string) (models.Debt, error)
	MarkOverdue(ctx context.Context) (int, error)
}

// DebtService provides business logic for debt management. After any
// mutation it invalidates the affected users' cached lists and notifies
// their connected clients; readers then reload the whole list rather
// than patching individual records.
type DebtService struct {
	db    *sql.DB
	cache *cache.DebtCache
	hub   *websocket.Hub
}

// NewDebtService creates a new DebtService. cache and hub may be nil.
func NewDebtService(db *sql.DB, debtCache *cache.DebtCache, hub *websocket.Hub) *DebtService {
	return &DebtService{db: db, cache: debtCache, hub: hub}
}

const debtColumns = `
	d.id, d.debtor_user_id, d.debtor_label, d.creditor_user_id, d.creditor_label,
	d.amount, d.description, d.debt_date, d.due_date, d.status, d.created_at, d.updated_at,
	du.first_name, du.last_name, du.display_name, du.email, du.role,
	cu.first_name, cu.last_name, cu.display_name, cu.email, cu.role`

const debtJoins = `
	FROM debts d
	LEFT JOIN users du ON du.id = d.debtor_user_id
	LEFT JOIN users cu ON cu.id = d.creditor_user_id`

// scanDebt reads one joined debt row, resolving each side to either an
// embedded user or a bare label.
func scanDebt(row interface{ Scan(...interface{}) error }) (models.Debt, error) {
	var (
		d                          models.Debt
		debtorID, debtorLabel      sql.NullString
		creditorID, creditorLabel  sql.NullString
		dueDate                    sql.NullString
		amount                     string
		dFirst, dLast, dName       sql.NullString
		dEmail, dRole              sql.NullString
		cFirst, cLast, cName       sql.NullString
		cEmail, cRole              sql.NullString
	)

	err := row.Scan(
		&d.ID, &debtorID, &debtorLabel, &creditorID, &creditorLabel,
		&amount, &d.Description, &d.DebtDate, &dueDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&dFirst, &dLast, &dName, &dEmail, &dRole,
		&cFirst, &cLast, &cName, &cEmail, &cRole,
	)
	if err != nil {
		return models.Debt{}, err
	}

	d.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.Debt{}, fmt.Errorf("debt %s has malformed amount %q: %w", d.ID, amount, err)
	}
	d.DueDate = dueDate.String

	d.Debtor = buildParty(debtorID, debtorLabel, dFirst, dLast, dName, dEmail, dRole)
	d.Creditor = buildParty(creditorID, creditorLabel, cFirst, cLast, cName, cEmail, cRole)
	return d, nil
}

func buildParty(userID, label, first, last, display, email, role sql.NullString) models.Party {
	if userID.Valid {
		return models.PartyFromUser(models.User{
			ID:          userID.String,
			FirstName:   first.String,
			LastName:    last.String,
			DisplayName: display.String,
			Email:       email.String,
			Role:        role.String,
		})
	}
	return models.PartyFromLabel(label.String)
}

// ListForUser returns every debt the user is a party to, read through
// the cache when one is configured.
func (s *DebtService) ListForUser(ctx context.Context, userID string) ([]models.Debt, error) {
	if debts, ok := s.cache.Get(ctx, userID); ok {
		return debts, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT"+debtColumns+debtJoins+`
		WHERE d.debtor_user_id = ? OR d.creditor_user_id = ?
		ORDER BY d.created_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, userID, debts)
	return debts, nil
}

// GetByID returns a single debt, provided the user is a party to it.
func (s *DebtService) GetByID(ctx context.Context, userID, debtID string) (models.Debt, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+debtColumns+debtJoins+`
		WHERE d.id = ? AND (d.debtor_user_id = ? OR d.creditor_user_id = ?)`,
		debtID, userID, userID)
	d, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return models.Debt{}, ErrNotFound
	}
	return d, err
}

// Create stores a new debt. The server assigns the id and the initial
// unpaid status; a side string matching a registered user id becomes a
// user reference, anything else is kept as an opaque label.
func (s *DebtService) Create(ctx context.Context, userID string, payload debtform.CreatePayload) (models.Debt, error) {
	debtorID, debtorLabel := s.resolveSide(ctx, payload.Debtor)
	creditorID, creditorLabel := s.resolveSide(ctx, payload.Creditor)

	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debts (id, debtor_user_id, debtor_label, creditor_user_id, creditor_label,
			amount, description, debt_date, due_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, debtorID, debtorLabel, creditorID, creditorLabel,
		payload.Amount.String(), payload.Description, payload.DebtDate,
		nullable(payload.DueDate), models.StatusUnpaid, now, now)
	if err != nil {
		return models.Debt{}, err
	}

	s.afterMutation(ctx, debtorID.String, creditorID.String)
	return s.GetByID(ctx, userID, id)
}

// Update applies a sparse payload to a debt the user is a party to.
// An empty payload is rejected with ErrNoChanges.
func (s *DebtService) Update(ctx context.Context, userID, debtID string, payload debtform.UpdatePayload) (models.Debt, error) {
	if payload.Description == nil && payload.Amount == nil && payload.DueDate == nil {
		return models.Debt{}, ErrNoChanges
	}

	current, err := s.GetByID(ctx, userID, debtID)
	if err != nil {
		return models.Debt{}, err
	}

	description := current.Description
	if payload.Description != nil {
		description = *payload.Description
	}
	amount := current.Amount
	if payload.Amount != nil {
		amount = *payload.Amount
	}
	dueDate := current.DueDate
	if payload.DueDate != nil {
		dueDate = *payload.DueDate
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE debts SET description = ?, amount = ?, due_date = ?, updated_at = ?
		WHERE id = ?`,
		description, amount.String(), nullable(dueDate),
		time.Now().UTC().Format(time.RFC3339), debtID)
	if err != nil {
		return models.Debt{}, err
	}

	s.afterMutation(ctx, partyUserID(current.Debtor), partyUserID(current.Creditor))
	return s.GetByID(ctx, userID, debtID)
}

// Delete removes a debt the user is a party to.
func (s *DebtService) Delete(ctx context.Context, userID, debtID string) error {
	current, err := s.GetByID(ctx, userID, debtID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", debtID); err != nil {
		return err
	}

	s.afterMutation(ctx, partyUserID(current.Debtor), partyUserID(current.Creditor))
	return nil
}

// MarkPaid sets a debt's status to paid.
func (s *DebtService) MarkPaid(ctx context.Context, userID, debtID string) (models.Debt, error) {
	current, err := s.GetByID(ctx, userID, debtID)
	if err != nil {
		return models.Debt{}, err
	}

	_, err = s.db.ExecContext(ctx, "UPDATE debts SET status = ?, updated_at = ? WHERE id = ?",
		models.StatusPaid, time.Now().UTC().Format(time.RFC3339), debtID)
	if err != nil {
		return models.Debt{}, err
	}

	s.afterMutation(ctx, partyUserID(current.Debtor), partyUserID(current.Creditor))
	return s.GetByID(ctx, userID, debtID)
}

// MarkOverdue flips every unpaid debt whose due date has passed to
// overdue and returns how many were flipped. Status is assigned here,
// on the server; clients never compute it.
func (s *DebtService) MarkOverdue(ctx context.Context) (int, error) {
	today := time.Now().UTC().Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT debtor_user_id, creditor_user_id FROM debts
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?`,
		models.StatusUnpaid, today)
	if err != nil {
		return 0, err
	}
	affected := map[string]bool{}
	for rows.Next() {
		var debtorID, creditorID sql.NullString
		if err := rows.Scan(&debtorID, &creditorID); err != nil {
			rows.Close()
			return 0, err
		}
		if debtorID.Valid {
			affected[debtorID.String] = true
		}
		if creditorID.Valid {
			affected[creditorID.String] = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE debts SET status = ?, updated_at = ?
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?`,
		models.StatusOverdue, time.Now().UTC().Format(time.RFC3339),
		models.StatusUnpaid, today)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()

	if n > 0 {
		ids := make([]string, 0, len(affected))
		for id := range affected {
			ids = append(ids, id)
		}
		s.afterMutation(ctx, ids...)
	}
	return int(n), nil
}

// resolveSide decides whether a wire-side string names a registered user
// or stays an opaque label.
func (s *DebtService) resolveSide(ctx context.Context, side string) (sql.NullString, sql.NullString) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", side).Scan(&exists)
	if err == nil && exists {
		return sql.NullString{String: side, Valid: true}, sql.NullString{}
	}
	return sql.NullString{}, sql.NullString{String: side, Valid: true}
}

// afterMutation invalidates caches and pushes change notifications for
// every registered user on the mutated debt.
func (s *DebtService) afterMutation(ctx context.Context, userIDs ...string) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	s.cache.Invalidate(ctx, ids...)
	if s.hub != nil {
		s.hub.NotifyDebtsChanged(ids...)
	}
	log.Debug().Strs("user_ids", ids).Msg("Debt list changed")
}

func partyUserID(p models.Party) string {
	if p.User != nil {
		return p.User.ID
	}
	return ""
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
