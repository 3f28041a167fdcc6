package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cutroom/cutroom-agent/internal/assistant"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/reconcile"
	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/media", listMediaHandler(cfg))
		r.Post("/media", importMediaHandler(cfg))
		r.Get("/media/{id}", getMediaHandler(cfg))
		r.Delete("/media/{id}", deleteMediaHandler(cfg))
		r.Post("/media/{id}/process", processMediaHandler(cfg))
		r.Get("/media/{id}/thumbnail", thumbnailHandler(cfg))

		r.Get("/tracks", listTracksHandler(cfg))
		r.Patch("/tracks/{index}", trackFlagsHandler(cfg))

		r.Get("/timeline", timelineHandler(cfg))
		r.Post("/timeline/clips", insertClipHandler(cfg))
		r.Post("/timeline/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/timeline/clips/{id}/resize", resizeClipHandler(cfg))
		r.Post("/timeline/clips/{id}/split", splitClipHandler(cfg))
		r.Patch("/timeline/clips/{id}", clipFlagsHandler(cfg))
		r.Delete("/timeline/clips/{id}", deleteClipHandler(cfg))

		r.Post("/assistant/actions", assistantHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/playback/media", playbackHandler(cfg))
		r.Post("/export", exportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		mediaCount, _ := cfg.Library.Count(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		if cfg.Reconciler != nil && cfg.Reconciler.Paused() {
			state = "paused"
		}

		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""
		for _, j := range jobs {
			if j.Status == library.JobStatusRunning {
				state = "processing"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == library.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:           state,
			LastError:       lastError,
			MediaCount:      mediaCount,
			ClipCount:       len(cfg.Engine.Clips()),
			TimelineVersion: cfg.Engine.Version(),
			ProjectDuration: cfg.Engine.ProjectDuration(),
			JobsRunning:     jobsRunning,
			ActiveJob:       activeJob,
		})
	}
}

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cfg.Library.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL_ERROR")
			return
		}

		resp := MediaListResponse{Media: make([]MediaResponse, len(items))}
		for i, m := range items {
			resp.Media[i] = MediaToResponse(m)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func importMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportMediaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		item, err := cfg.Library.Import(r.Context(), req.Path, req.DisplayName)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, MediaToResponse(item))
	}
}

func getMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := cfg.Library.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if item == nil {
			WriteError(w, http.StatusNotFound, "media not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, MediaToResponse(item))
	}
}

func deleteMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Library.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func processMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reconcile.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job, err := cfg.Reconciler.Submit(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := cfg.Library.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if item == nil || item.Thumbnail == "" {
			WriteError(w, http.StatusNotFound, "thumbnail not found", "NOT_FOUND")
			return
		}
		cfg.Streamer.ServeFile(w, r, item.Thumbnail)
	}
}

func listTracksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, TracksResponse{Tracks: cfg.Engine.Tracks().List()})
	}
}

func trackFlagsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid track index", "BAD_REQUEST")
			return
		}

		var req TrackFlagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		tracks := cfg.Engine.Tracks()
		ok := true
		if req.Muted != nil {
			ok = tracks.SetMuted(index, *req.Muted) && ok
		}
		if req.Visible != nil {
			ok = tracks.SetVisible(index, *req.Visible) && ok
		}
		if req.Locked != nil {
			ok = tracks.SetLocked(index, *req.Locked) && ok
		}
		if !ok {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}

		track, _ := tracks.Get(index)
		WriteJSON(w, http.StatusOK, track)
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips := cfg.Engine.Clips()
		resp := TimelineResponse{
			Clips:    make([]ClipResponse, len(clips)),
			Version:  cfg.Engine.Version(),
			Duration: cfg.Engine.ProjectDuration(),
		}
		for i, c := range clips {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func insertClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InsertClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}

		item, err := cfg.Library.Get(r.Context(), req.MediaID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if item == nil {
			WriteError(w, http.StatusNotFound, "media not found", "NOT_FOUND")
			return
		}

		clip := cfg.Engine.InsertFromLibrary(timeline.MediaRef{
			ID:        item.ID,
			Name:      item.Name,
			Kind:      item.Kind,
			Duration:  item.Duration,
			Thumbnail: item.Thumbnail,
		}, req.TrackIndex, req.DropTime)

		WriteJSON(w, http.StatusCreated, ClipMutationResponse{
			Clip:    ClipToResponse(clip),
			Version: cfg.Engine.Version(),
		})
	}
}

// clipMutation wraps the shared not-found / no-op handling of the clip
// mutation endpoints. Rejected mutations are reported as 409 so the editor
// can tell "nothing happened" from an error.
func clipMutation(cfg ServerConfig, w http.ResponseWriter, id string, clip timeline.Clip, ok bool) {
	if !ok {
		if _, exists := cfg.Engine.Get(id); !exists {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		WriteError(w, http.StatusConflict, "mutation rejected, clip state unchanged", "NOOP")
		return
	}
	WriteJSON(w, http.StatusOK, ClipMutationResponse{
		Clip:    ClipToResponse(clip),
		Version: cfg.Engine.Version(),
	})
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		clip, ok := cfg.Engine.Move(id, req.StartTime, req.TrackIndex)
		clipMutation(cfg, w, id, clip, ok)
	}
}

func resizeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResizeClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		clip, ok := cfg.Engine.Resize(id, req.Duration, req.FromStart)
		clipMutation(cfg, w, id, clip, ok)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SplitClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		result, ok := cfg.Engine.Split(id, req.SplitTime)
		if !ok {
			if _, exists := cfg.Engine.Get(id); !exists {
				WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusConflict, "split rejected, clip state unchanged", "NOOP")
			return
		}

		WriteJSON(w, http.StatusOK, SplitClipResponse{
			First:   ClipToResponse(result.First),
			Second:  ClipToResponse(result.Second),
			Version: cfg.Engine.Version(),
		})
	}
}

func clipFlagsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClipFlagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		clip, ok := cfg.Engine.UpdateFlags(id, req.Locked, req.Muted, req.Visible)
		clipMutation(cfg, w, id, clip, ok)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Engine.Delete(chi.URLParam(r, "id")) {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func assistantHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MediaID string `json:"media_id"`
			assistant.Envelope
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Type == "" {
			WriteError(w, http.StatusBadRequest, "action type is required", "BAD_REQUEST")
			return
		}

		outcome, err := cfg.Assistant.Execute(r.Context(), req.MediaID, req.Envelope)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, outcome)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID := r.URL.Query().Get("media_id")
		if mediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}
		cfg.Streamer.ServeMedia(w, r, mediaID)
	}
}
