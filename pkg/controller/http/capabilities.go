package http

import (
	"net/http"

	"github.com/secmon-lab/gathsalt/pkg/usecase"
)

type capabilitiesResponse struct {
	SlackShare   bool `json:"slackShare"`
	NotionExport bool `json:"notionExport"`
}

// capabilitiesHandler tells the dashboard which export actions to offer
func capabilitiesHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, capabilitiesResponse{
			SlackShare:   uc.Export.SlackEnabled(),
			NotionExport: uc.Export.NotionEnabled(),
		})
	}
}
