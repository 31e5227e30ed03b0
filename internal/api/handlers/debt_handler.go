package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mydebts/mydebts-be/internal/auth"
	"github.com/mydebts/mydebts-be/internal/debtview"
	"github.com/mydebts/mydebts-be/internal/forms/debtform"
	"github.com/mydebts/mydebts-be/internal/services"
)

// DebtHandler handles HTTP requests for debts.
type DebtHandler struct {
	service services.DebtServiceProvider
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(service services.DebtServiceProvider) *DebtHandler {
	return &DebtHandler{service: service}
}

// CreateDebtPayload is the request body for creating a debt. Exactly one
// side must be the acting user's id; the other side is the counterparty,
// kept as an opaque label unless it names a registered user.
type CreateDebtPayload struct {
	Debtor      string          `json:"debtor"`
	Creditor    string          `json:"creditor"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DebtDate    string          `json:"debtDate"`
	DueDate     string          `json:"dueDate,omitempty"`
}

// UpdateDebtPayload is the sparse request body for editing a debt; absent
// fields are left untouched.
type UpdateDebtPayload struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     *string          `json:"dueDate"`
}

// GetAll returns every debt the authenticated user is a party to.
func (h *DebtHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())

	debts, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list debts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve debts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Debts retrieved successfully",
		"debts":   debts,
	})
}

// GetColumns runs the derivation pipeline server-side: the user's debts
// filtered by mode and counterparty selection, split by status and
// sorted, plus the counterparty filter options.
func (h *DebtHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())

	debts, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list debts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve debts")
		return
	}

	q := r.URL.Query()
	mode := debtview.Mode(q.Get("mode"))
	if mode != debtview.ModeDebtor {
		mode = debtview.ModeCreditor
	}
	sortKey := debtview.SortKey(q.Get("sort"))
	selected := q["counterparty"]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Debts retrieved successfully",
		"columns":        debtview.Partition(debts, mode, sortKey, selected, userID),
		"counterparties": debtview.Counterparties(debts, mode, userID),
	})
}

// Get returns a single debt by id.
func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())
	debtID := chi.URLParam(r, "id")

	debt, err := h.service.GetByID(r.Context(), userID, debtID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Debt not found")
			return
		}
		log.Error().Err(err).Str("debt_id", debtID).Msg("Failed to get debt")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve debt")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Debt retrieved successfully",
		"debt":    debt,
	})
}

// Create validates and stores a new debt.
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())

	var payload CreateDebtPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var side debtform.Side
	var counterparty string
	switch userID {
	case payload.Creditor:
		side, counterparty = debtform.SideCreditor, payload.Debtor
	case payload.Debtor:
		side, counterparty = debtform.SideDebtor, payload.Creditor
	default:
		respondError(w, http.StatusBadRequest, "You must be a party to the debt")
		return
	}

	form := debtform.NewCreate()
	form.SetCounterparty(counterparty)
	form.SetDescription(payload.Description)
	if !payload.Amount.IsZero() {
		form.SetAmount(&payload.Amount)
	} else {
		form.SetAmount(nil)
	}
	if t, err := parseDate(payload.DebtDate); err == nil {
		form.SetDebtDate(t)
	}
	if payload.DueDate != "" {
		t, err := parseDate(payload.DueDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid due date")
			return
		}
		form.SetDueDate(&t)
	}

	if errs := form.Validate(); errs.Any() {
		respondError(w, http.StatusBadRequest, validationMessage(errs))
		return
	}

	p, ok := form.CreatePayload(userID, side)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid debt data. Please check your information.")
		return
	}

	debt, err := h.service.Create(r.Context(), userID, p)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create debt")
		respondError(w, http.StatusInternalServerError, "Failed to create debt")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Debt created successfully",
		"debt":    debt,
	})
}

// Update applies a sparse edit to a debt. A payload that changes nothing
// relative to the stored record is rejected.
func (h *DebtHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())
	debtID := chi.URLParam(r, "id")

	var payload UpdateDebtPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current, err := h.service.GetByID(r.Context(), userID, debtID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Debt not found")
			return
		}
		log.Error().Err(err).Str("debt_id", debtID).Msg("Failed to load debt for update")
		respondError(w, http.StatusInternalServerError, "Failed to update debt")
		return
	}

	form := debtform.NewUpdate(debtform.InitialFromDebt(current))
	if payload.Description != nil {
		form.SetDescription(*payload.Description)
	}
	if payload.Amount != nil {
		form.SetAmount(payload.Amount)
	}
	if payload.DueDate != nil {
		if *payload.DueDate == "" {
			form.SetDueDate(nil)
		} else {
			t, err := parseDate(*payload.DueDate)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid due date")
				return
			}
			form.SetDueDate(&t)
		}
	}

	if errs := form.Validate(); errs.Any() {
		respondError(w, http.StatusBadRequest, validationMessage(errs))
		return
	}

	p, _ := form.UpdatePayload()
	debt, err := h.service.Update(r.Context(), userID, debtID, p)
	if err != nil {
		if errors.Is(err, services.ErrNoChanges) {
			respondError(w, http.StatusBadRequest, "No changes to save")
			return
		}
		log.Error().Err(err).Str("debt_id", debtID).Msg("Failed to update debt")
		respondError(w, http.StatusInternalServerError, "Failed to update debt")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Debt updated successfully",
		"debt":    debt,
	})
}

// Delete removes a debt.
func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())
	debtID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, debtID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Debt not found")
			return
		}
		log.Error().Err(err).Str("debt_id", debtID).Msg("Failed to delete debt")
		respondError(w, http.StatusInternalServerError, "Failed to delete debt")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid sets a debt's status to paid.
func (h *DebtHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())
	debtID := chi.URLParam(r, "id")

	debt, err := h.service.MarkPaid(r.Context(), userID, debtID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Debt not found")
			return
		}
		log.Error().Err(err).Str("debt_id", debtID).Msg("Failed to mark debt paid")
		respondError(w, http.StatusInternalServerError, "Failed to mark debt as paid")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Debt marked as paid",
		"debt":    debt,
	})
}

// validationMessage maps the form error state to the single user-facing
// message the UI shows; the due-date rule gets its own message.
func validationMessage(errs debtform.Errors) string {
	switch {
	case errs.DueBeforeDebtDate:
		return "Due date cannot be before the debt date"
	case errs.NoChanges:
		return "No changes to save"
	case errs.AmountNotPositive:
		return "Amount must be greater than zero"
	default:
		return "Invalid debt data. Please check your information."
	}
}

// parseDate accepts the calendar-date form used on debts, falling back
// to a full timestamp from older clients.
func parseDate(s string) (time.Time, error) {
	if t, err := debtform.ParseDate(s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
