package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/censor"
	"moderation/pkg/contact"
	"moderation/pkg/logger"
	"moderation/pkg/models"
)

// maxBodyBytes caps request bodies; contact messages are short.
const maxBodyBytes = 64 << 10

type API struct {
	ServiceName string

	r      *mux.Router
	censor *censor.Censor
	form   *contact.Validator
	kw     *kafka.Writer
}

func New(name string, c *censor.Censor, kafkaWriter *kafka.Writer) (*API, error) {
	if c == nil {
		return nil, errors.New("censor is required")
	}

	api := API{
		ServiceName: name,
		r:           mux.NewRouter(),
		censor:      c,
		form:        contact.NewValidator(c),
		kw:          kafkaWriter,
	}
	api.endpoints()

	return &api, nil
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	api.r.HandleFunc("/check", api.checkHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/contact", api.contactHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/ready", api.readyHandler).Methods(http.MethodGet)
}

func (api *API) checkHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req CheckRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[checkHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	m, flagged, err := api.censor.Match(req.Text)
	if err != nil {
		if errors.Is(err, censor.ErrNotReady) {
			w.Header().Set(logger.VerdictHeader, models.VerdictNotReady)
			http.Error(w, "Moderation is not available yet", http.StatusServiceUnavailable)
			log.Warnf("[checkHandler][%s] lexicon is not loaded yet", sID)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[checkHandler][%s] Match() returned error: %v", sID, err)
		return
	}

	status := http.StatusOK
	w.Header().Set(logger.VerdictHeader, models.VerdictClean)
	if flagged {
		status = http.StatusUnprocessableEntity
		w.Header().Set(logger.VerdictHeader, models.VerdictFlagged)
		log.Debugf("[checkHandler][%s] token %q matched entry %q", sID, m.Token, m.Entry.Raw)
	}

	writeJSON(w, status, CheckResponse{Flagged: flagged}, sID)
}

func (api *API) contactHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var form contact.Form
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form)
	if err != nil {
		http.Error(w, "Bad Request: invalid JSON", http.StatusBadRequest)
		log.Debugf("[contactHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	fieldErrs, err := api.form.Validate(form)
	if err != nil {
		if errors.Is(err, contact.ErrModerationUnavailable) {
			w.Header().Set(logger.VerdictHeader, models.VerdictNotReady)
			http.Error(w, "Moderation is not available yet, please retry later", http.StatusServiceUnavailable)
			log.Warnf("[contactHandler][%s] submission blocked: %v", sID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[contactHandler][%s] Validate() returned error: %v", sID, err)
		return
	}

	if fieldErrs["message"] == contact.MsgLanguage {
		w.Header().Set(logger.VerdictHeader, models.VerdictFlagged)
	} else if _, ok := fieldErrs["message"]; !ok {
		w.Header().Set(logger.VerdictHeader, models.VerdictClean)
	}

	if len(fieldErrs) > 0 {
		log.Debugf("[contactHandler][%s] rejected fields: %v", sID, fieldErrs)
		writeJSON(w, http.StatusUnprocessableEntity, ContactResponse{Status: "invalid", Errors: fieldErrs}, sID)
		return
	}

	writeJSON(w, http.StatusAccepted, ContactResponse{Status: "accepted"}, sID)
	log.Infof("[contactHandler][%s] contact form accepted from %v", sID, getClientIP(r))
}

func (api *API) readyHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	ready := api.censor.Ready()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, ReadyResponse{Ready: ready}, sID)
}

func writeJSON(w http.ResponseWriter, status int, v any, sID string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("[writeJSON][%s] failed to encode response data: %v", sID, err)
	}
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
