package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/service/audio"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
)

// maxUploadBytes bounds media uploads, multipart and JSON alike
const maxUploadBytes = 20 << 20

type createInsightRequest struct {
	Input string `json:"input"`
}

type mediaInsightRequest struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type listInsightsResponse struct {
	Insights []*model.Insight `json:"insights"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer     string           `json:"answer,omitempty"`
	Transcript model.Transcript `json:"transcript"`
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type notionExportResponse struct {
	URL string `json:"url"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrInvalidInput, "invalid request body", goerr.V("cause", err.Error()))
	}
	return nil
}

// loadInsight resolves the {id} path parameter
func loadInsight(uc *usecase.UseCases, r *http.Request) (*model.Insight, error) {
	id := model.InsightID(chi.URLParam(r, "id"))
	return uc.Insight.Get(r.Context(), id)
}

func listInsightsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter model.InsightFilter
		if p := r.URL.Query().Get("platform"); p != "" && !strings.EqualFold(p, "all") {
			platform, err := types.ParsePlatform(p)
			if err != nil {
				handleError(r.Context(), w, goerr.Wrap(usecase.ErrInvalidInput, "unknown platform", goerr.V("platform", p)))
				return
			}
			filter.Platform = platform
		}

		insights, err := uc.Insight.List(r.Context(), filter)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		if insights == nil {
			insights = []*model.Insight{}
		}
		writeJSON(r.Context(), w, http.StatusOK, listInsightsResponse{Insights: insights})
	}
}

func createInsightHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createInsightRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		insight, err := uc.Insight.GenerateFromReference(r.Context(), req.Input)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, insight)
	}
}

// createMediaInsightHandler accepts either a multipart "file" upload or a JSON
// body carrying a data URI
func createMediaInsightHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mediaInsightRequest
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			dataURI, mimeType, err := readUpload(w, r)
			if err != nil {
				handleError(r.Context(), w, err)
				return
			}
			req = mediaInsightRequest{Data: dataURI, MIMEType: mimeType}
		} else if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		insight, err := uc.Insight.AnalyzeMedia(r.Context(), req.Data, req.MIMEType)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, insight)
	}
}

// readUpload converts the multipart "file" field into a data URI. The MIME type
// is taken from the part header, or sniffed when the client sent none.
func readUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", goerr.Wrap(usecase.ErrInvalidMedia, "failed to parse upload", goerr.V("cause", err.Error()))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", goerr.Wrap(usecase.ErrInvalidMedia, "file field is required", goerr.V("cause", err.Error()))
	}
	defer safe.Close(r.Context(), file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", goerr.Wrap(usecase.ErrInvalidMedia, "failed to read upload", goerr.V("cause", err.Error()))
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return model.BuildDataURI(mimeType, data), mimeType, nil
}

func getInsightHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, insight)
	}
}

func deleteInsightHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.InsightID(chi.URLParam(r, "id"))
		if err := uc.Insight.Delete(r.Context(), id); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deepDiveHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		if r.URL.Query().Get("refresh") == "true" {
			uc.DeepDive.Invalidate(insight.ID)
		}

		result, err := uc.DeepDive.DeepDive(r.Context(), insight)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, result)
	}
}

func transcriptHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, chatResponse{Transcript: uc.Chat.Transcript(insight.ID)})
	}
}

func chatHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		var req chatRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		answer, err := uc.Chat.Ask(r.Context(), insight, req.Question)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, chatResponse{
			Answer:     answer,
			Transcript: uc.Chat.Transcript(insight.ID),
		})
	}
}

// insightSpeechHandler reads an insight summary aloud. The insight card is the
// playback slot.
func insightSpeechHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		slot := "insight:" + insight.ID.String()
		speak(uc, w, r, slot, insight.Summary, r.URL.Query().Get("voice"))
	}
}

// speechHandler reads arbitrary text aloud. Each user has one briefing slot.
func speechHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req speechRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		slot := "briefing:" + auth.UserFromContext(r.Context()).Subject()
		speak(uc, w, r, slot, req.Text, req.Voice)
	}
}

// speak renders the speech as a WAV body. A reply without audio is a no-op and
// answers 204.
func speak(uc *usecase.UseCases, w http.ResponseWriter, r *http.Request, slot, text, voice string) {
	var buf bytes.Buffer
	err := uc.Speech.Speak(r.Context(), slot, text, voice, audio.NewWAVPlayer(&buf))
	if errors.Is(err, usecase.ErrNoAudioReturned) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, buf.Bytes())
}

func notionExportHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insight, err := loadInsight(uc, r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		url, err := uc.Export.ExportToNotion(r.Context(), insight)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, notionExportResponse{URL: url})
	}
}
