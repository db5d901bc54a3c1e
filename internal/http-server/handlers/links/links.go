package links

import (
	"context"
	"errors"
	"fmt"
	"invitebot/entity"
	"invitebot/impl/core"
	"invitebot/internal/export"
	"invitebot/lib/api/cont"
	"invitebot/lib/api/response"
	"invitebot/lib/sl"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Links(ctx context.Context) ([]entity.InviteLink, error)
	LinksByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error)
	CreateLinks(ctx context.Context, ownerId int64, req *entity.CreateRequest) ([]entity.InviteLink, error)
	Stats(ctx context.Context, ownerId int64) (*export.File, error)
	TotalStats(ctx context.Context) (*export.File, error)
	SyncNow(ctx context.Context) error
}

const mod = "http.handlers.links"

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module(mod),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client", cont.GetClient(r.Context())),
	)
}

func ownerParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		links, err := handler.Links(r.Context())
		if err != nil {
			logger.Error("get links", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		logger.With(slog.Int("count", len(links))).Debug("links listed")

		render.JSON(w, r, response.List(links))
	}
}

func ByOwner(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		ownerId, err := ownerParam(r)
		if err != nil {
			logger.Warn("invalid owner id")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid owner id"))
			return
		}

		links, err := handler.LinksByOwner(r.Context(), ownerId)
		if err != nil {
			logger.Error("get links", slog.Int64("owner_id", ownerId), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}

		render.JSON(w, r, response.List(links))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		ownerId, err := ownerParam(r)
		if err != nil {
			logger.Warn("invalid owner id")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid owner id"))
			return
		}

		var req entity.CreateRequest
		if err = render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.Int64("owner_id", ownerId),
			slog.String("mode", string(req.Mode)),
		)

		links, err := handler.CreateLinks(r.Context(), ownerId, &req)
		if errors.Is(err, core.ErrInvalidRequest) {
			logger.Warn("create links", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		if err != nil {
			logger.Error("create links", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error(fmt.Sprintf("Create links: %v", err)))
			return
		}
		logger.With(slog.Int("count", len(links))).Info("links created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.List(links))
	}
}

// Export sends the spreadsheet of one owner when ?owner= is set, otherwise of all links.
func Export(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var file *export.File
		var err error
		if owner := r.URL.Query().Get("owner"); owner != "" {
			ownerId, perr := strconv.ParseInt(owner, 10, 64)
			if perr != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid owner id"))
				return
			}
			file, err = handler.Stats(r.Context(), ownerId)
		} else {
			file, err = handler.TotalStats(r.Context())
		}
		if errors.Is(err, core.ErrNoLinks) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("No links"))
			return
		}
		if err != nil {
			logger.Error("export", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Export failed: %v", err)))
			return
		}

		w.Header().Set("Content-Type", export.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		if _, err = w.Write(file.Data); err != nil {
			logger.Error("write file", sl.Err(err))
		}
	}
}

func Sync(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if err := handler.SyncNow(r.Context()); err != nil {
			logger.Error("sync", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error(fmt.Sprintf("Sync failed: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
