package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mydebts/mydebts-be/internal/auth"
	"github.com/mydebts/mydebts-be/internal/debtview"
	"github.com/mydebts/mydebts-be/internal/services"
	ws "github.com/mydebts/mydebts-be/internal/websocket"
)

// WebSocketHandler serves the live debt-columns view. Each connection
// owns a debtview.View; the client drives the view's mode, sort and
// counterparty filter, and every recompute is pushed back as a columns
// message. When a mutation touches the user's debts, the list is
// reloaded in full and fed back into the view.
type WebSocketHandler struct {
	hub         *ws.Hub
	debtService services.DebtServiceProvider

	mu    sync.Mutex
	views map[*ws.Client]*debtview.View
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, debtService services.DebtServiceProvider) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		debtService: debtService,
		views:       make(map[*ws.Client]*debtview.View),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

type columnsPayload struct {
	Columns        debtview.Columns  `json:"columns"`
	Counterparties []debtview.Option `json:"counterparties"`
}

// Serve handles the WebSocket connection request. Browsers cannot set
// headers on websocket upgrades, so the session token also travels as a
// query parameter.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		tokenStr = auth.TokenFromRequest(r)
	}
	claims, err := auth.ValidateJWT(tokenStr)
	if err != nil {
		http.Error(w, "Invalid auth token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register <- client

	view := debtview.NewView()
	view.SetCurrentUser(claims.UserID)
	h.mu.Lock()
	h.views[client] = view
	h.mu.Unlock()

	unsubscribe := view.Subscribe(func(cols debtview.Columns, opts []debtview.Option) {
		raw, err := json.Marshal(ws.Message{
			Action:  "columns",
			Payload: columnsPayload{Columns: cols, Counterparties: opts},
		})
		if err != nil {
			return
		}
		select {
		case client.Send <- raw:
		default:
			// Slow client; it will catch up on the next recompute.
		}
	})

	h.reload(client, view)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Full reload whenever a mutation touches the user's debts.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-client.Refresh:
				h.reload(client, view)
			case <-done:
				return
			}
		}
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		close(done)
		unsubscribe()

		h.mu.Lock()
		delete(h.views, client)
		h.mu.Unlock()

		h.hub.Unregister <- client
	}()
}

// reload fetches the user's full debt list and feeds it to the view.
func (h *WebSocketHandler) reload(client *ws.Client, view *debtview.View) {
	debts, err := h.debtService.ListForUser(context.Background(), client.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", client.UserID).Msg("Failed to reload debts for live view")
		return
	}
	view.SetDebts(debts)
}

// handleIncomingWSMessage processes view-state changes sent by a client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	h.mu.Lock()
	view := h.views[client]
	h.mu.Unlock()
	if view == nil {
		return
	}

	switch msg.Action {
	case "set_mode":
		if mode, ok := msg.Payload.(string); ok && debtview.Mode(mode) == debtview.ModeDebtor {
			view.SetMode(debtview.ModeDebtor)
		} else {
			view.SetMode(debtview.ModeCreditor)
		}

	case "set_sort":
		if key, ok := msg.Payload.(string); ok {
			view.SetSortKey(debtview.SortKey(key))
		}

	case "set_counterparties":
		raw, ok := msg.Payload.([]interface{})
		if !ok {
			client.Send <- ws.NewErrorMessage("Invalid payload for set_counterparties")
			return
		}
		ids := make([]string, 0, len(raw))
		for _, v := range raw {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
		view.SetSelected(ids)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Send <- ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
}
