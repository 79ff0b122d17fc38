package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/audio"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/errutil"
)

var errorStatuses = []struct {
	target error
	status int
}{
	{usecase.ErrInFlight, http.StatusConflict},
	{interfaces.ErrNotFound, http.StatusNotFound},
	{usecase.ErrInvalidMedia, http.StatusBadRequest},
	{usecase.ErrInvalidInput, http.StatusBadRequest},
	{model.ErrInvalidDataURI, http.StatusBadRequest},
	{usecase.ErrUnauthorized, http.StatusUnauthorized},
	{usecase.ErrGeneration, http.StatusBadGateway},
	{usecase.ErrResearch, http.StatusBadGateway},
	{usecase.ErrChat, http.StatusBadGateway},
	{usecase.ErrSpeech, http.StatusBadGateway},
	{audio.ErrMalformedAudio, http.StatusBadGateway},
	{usecase.ErrNotConfigured, http.StatusNotImplemented},
}

func statusOf(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// handleError maps err to a status code and writes a JSON error body
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}
