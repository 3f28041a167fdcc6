package api

import (
	"encoding/json"
	"net/http"

	"github.com/cutroom/cutroom-agent/internal/export"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		projectName := export.SanitizeName(req.ProjectName, 120)
		if projectName == "" {
			projectName = "cutroom_export"
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		ctx := r.Context()
		entries, unresolved := export.BuildCutList(cfg.Engine.Clips(), func(mediaID string) (string, bool) {
			item, err := cfg.Library.Get(ctx, mediaID)
			if err != nil || item == nil {
				return "", false
			}
			return item.Path, true
		})

		if len(entries) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips on the primary video track", "UNRESOLVABLE_CLIPS")
			return
		}

		edl := export.GenerateEDL(entries, projectName, frameRate)
		outputPath, err := export.WriteEDL(req.OutputDir, projectName, edl)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ExportResponse{
			Status:          "ok",
			OutputPath:      outputPath,
			ClipCount:       len(entries),
			UnresolvedClips: unresolved,
		})
	}
}
