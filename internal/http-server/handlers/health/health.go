package health

import (
	"invitebot/lib/api/response"
	"net/http"

	"github.com/go-chi/render"
)

type Status interface {
	SyncState() string
}

type status struct {
	Sync string `json:"sync"`
}

func Health(handler Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := status{Sync: "disabled"}
		if handler != nil {
			st.Sync = handler.SyncState()
		}
		render.JSON(w, r, response.Ok(st))
	}
}
