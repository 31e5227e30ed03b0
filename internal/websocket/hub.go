package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and fans debt-change
// notifications out to the clients of the affected users.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Debt mutations, carrying the ids of the users whose lists changed.
	notifications chan []string

	// A map of user IDs to the set of that user's connected clients.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		notifications: make(chan []string, 16),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// NotifyDebtsChanged tells every client of the given users that their
// debt list changed and a reload is due.
func (h *Hub) NotifyDebtsChanged(userIDs ...string) {
	h.notifications <- userIDs
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client, client.UserID)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case userIDs := <-h.notifications:
			for _, userID := range userIDs {
				h.notifyUser(userID)
			}
		}
	}
}

func (h *Hub) notifyUser(userID string) {
	for client := range h.subscriptions[userID] {
		select {
		case client.Refresh <- struct{}{}:
		default:
			// Client already has a pending refresh; one reload covers both.
		}
	}
}

func (h *Hub) addSubscription(client *Client, userID string) {
	if h.subscriptions[userID] == nil {
		h.subscriptions[userID] = make(map[*Client]bool)
	}
	h.subscriptions[userID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for userID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, userID)
			}
		}
	}
}
