package handlers

import (
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// TransformEvents streams session snapshots over a websocket. The
// current snapshot is sent immediately, then one message per phase
// transition until the session reaches a terminal phase.
func (a *App) TransformEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wf, ok := a.Sessions.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown transform session")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(a.Origins),
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", id).Msg("http: websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ch, cancel := wf.Watch()
	defer cancel()

	ctx := r.Context()
	snap := wf.Snapshot()
	if err := wsjson.Write(ctx, conn, snap); err != nil {
		return
	}
	if snap.Phase.Terminal() {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				return
			}
			if snap.Phase.Terminal() {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

// originHosts reduces configured CORS origins to the host patterns the
// websocket handshake checks against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}
