package live

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

/*
An empty Origin header is not a browser and passes. Without an allow-list the
origin host must match the request host.
*/
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(set) == 0 {
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		}
		_, ok := set[strings.ToLower(strings.TrimSuffix(origin, "/"))]
		return ok
	}
}

/*
Upgrades the request and keeps the connection registered for userID until the client goes away.
Incoming messages are ignored.
*/
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, count int) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[ws] upgrade:", err)
		return
	}

	h.Add(userID, ws, count)
	log.Printf("[ws] user %s connected", userID)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.Remove(userID, ws)
	log.Printf("[ws] user %s disconnected", userID)
}
