package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"

	"moderation/pkg/censor"
	"moderation/pkg/contact"
	"moderation/pkg/lexicon"
	"moderation/pkg/logger"
	"moderation/pkg/models"
)

const testRequestID = "9b4f6c5d-1a32-4d8f-b5a6-23c9e1f7d2a1"

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func newTestAPI(t *testing.T, store *lexicon.Store) *API {
	t.Helper()

	api, err := New("moderation", censor.New(store), nil)
	if err != nil {
		t.Fatalf("failed to create API: %v", err)
	}
	return api
}

func loadedStore(t *testing.T) *lexicon.Store {
	t.Helper()

	data, err := os.ReadFile("../censor/test_data/banned_words.txt")
	if err != nil {
		t.Fatalf("failed to load words for censor: %v", err)
	}
	store := lexicon.NewStore()
	store.Publish(lexicon.Compile(string(data)))
	return store
}

func postJSON(t *testing.T, api *API, path string, v any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("X-Request-Id", testRequestID)
	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)
	return rr
}

func TestNew_NilCensor(t *testing.T) {
	if _, err := New("", nil, nil); err == nil {
		t.Error("want error for nil censor")
	}
}

func TestAPI_check(t *testing.T) {
	api := newTestAPI(t, loadedStore(t))

	tests := []struct {
		name        string
		text        string
		wantCode    int
		wantFlagged bool
		wantVerdict string
	}{
		{"Clean", "This is a test comment", http.StatusOK, false, models.VerdictClean},
		{"Banned", "this is b4d", http.StatusUnprocessableEntity, true, models.VerdictFlagged},
		{"Banned Cyrillic", "Ты злой", http.StatusUnprocessableEntity, true, models.VerdictFlagged},
		{"Glued by punctuation", "you,bad", http.StatusUnprocessableEntity, true, models.VerdictFlagged},
		{"Split word", "e vil", http.StatusOK, false, models.VerdictClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, api, "/check", CheckRequest{Text: tt.text})
			if rr.Code != tt.wantCode {
				t.Fatalf("want status code %v, got status code %v", tt.wantCode, rr.Code)
			}

			var resp CheckResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Flagged != tt.wantFlagged {
				t.Errorf("want flagged %v, got %v", tt.wantFlagged, resp.Flagged)
			}
			if got := rr.Header().Get(logger.VerdictHeader); got != tt.wantVerdict {
				t.Errorf("want verdict header %q, got %q", tt.wantVerdict, got)
			}
			if got := rr.Header().Get("X-Request-Id"); got != testRequestID {
				t.Errorf("want X-Request-Id %q, got %q", testRequestID, got)
			}
		})
	}
}

func TestAPI_checkBadRequest(t *testing.T) {
	api := newTestAPI(t, loadedStore(t))

	req := httptest.NewRequest(http.MethodPost, "/check", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
	}
}

func TestAPI_checkNotReady(t *testing.T) {
	api := newTestAPI(t, lexicon.NewStore())

	rr := postJSON(t, api, "/check", CheckRequest{Text: "anything"})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("want status code %v, got status code %v", http.StatusServiceUnavailable, rr.Code)
	}
	if got := rr.Header().Get(logger.VerdictHeader); got != models.VerdictNotReady {
		t.Errorf("want verdict header %q, got %q", models.VerdictNotReady, got)
	}
}

func TestAPI_ready(t *testing.T) {
	store := lexicon.NewStore()
	api := newTestAPI(t, store)

	get := func() (int, ReadyResponse) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()
		api.Router().ServeHTTP(rr, req)

		var resp ReadyResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return rr.Code, resp
	}

	if code, resp := get(); code != http.StatusServiceUnavailable || resp.Ready {
		t.Errorf("want 503 and not ready before load, got %v and %+v", code, resp)
	}

	store.Publish(lexicon.Compile(""))

	if code, resp := get(); code != http.StatusOK || !resp.Ready {
		t.Errorf("want 200 and ready after load, got %v and %+v", code, resp)
	}
}

var testForm = contact.Form{
	Name:    "John Doe",
	Email:   "john.doe@example.com",
	Phone:   "+16502530000",
	Message: "Please call me back about the offer",
}

func TestAPI_contact(t *testing.T) {
	api := newTestAPI(t, loadedStore(t))

	rr := postJSON(t, api, "/contact", testForm)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("want status code %v, got status code %v", http.StatusAccepted, rr.Code)
	}

	var resp ContactResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "accepted" {
		t.Errorf("want status %q, got %q", "accepted", resp.Status)
	}
	if got := rr.Header().Get(logger.VerdictHeader); got != models.VerdictClean {
		t.Errorf("want verdict header %q, got %q", models.VerdictClean, got)
	}
}

func TestAPI_contactInvalid(t *testing.T) {
	api := newTestAPI(t, loadedStore(t))

	form := testForm
	form.Email = "john@gamil.com"
	form.Message = "you are W1CK3D"

	rr := postJSON(t, api, "/contact", form)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want status code %v, got status code %v", http.StatusUnprocessableEntity, rr.Code)
	}

	var resp ContactResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Errors["email"] != contact.MsgEmail {
		t.Errorf("want email error %q, got %q", contact.MsgEmail, resp.Errors["email"])
	}
	if resp.Errors["message"] != contact.MsgLanguage {
		t.Errorf("want message error %q, got %q", contact.MsgLanguage, resp.Errors["message"])
	}
	if got := rr.Header().Get(logger.VerdictHeader); got != models.VerdictFlagged {
		t.Errorf("want verdict header %q, got %q", models.VerdictFlagged, got)
	}
}

// A submission made before the lexicon is loaded is blocked, the same submission is evaluated
// once it is.
func TestAPI_contactReadinessGating(t *testing.T) {
	store := lexicon.NewStore()
	api := newTestAPI(t, store)

	rr := postJSON(t, api, "/contact", testForm)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("want status code %v before load, got %v", http.StatusServiceUnavailable, rr.Code)
	}

	data, err := os.ReadFile("../censor/test_data/banned_words.txt")
	if err != nil {
		t.Fatalf("failed to load words for censor: %v", err)
	}
	store.Publish(lexicon.Compile(string(data)))

	rr = postJSON(t, api, "/contact", testForm)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("want status code %v after load, got %v", http.StatusAccepted, rr.Code)
	}
}
