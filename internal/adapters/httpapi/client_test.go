package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
	"github.com/kamal-hamza/assetctl/internal/core/services"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, staticToken("tok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/transfers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("locations"); got != "NP360,TEST" {
			t.Errorf("expected locations CSV, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a request id")
		}
		w.Write([]byte(`[
			{"_id": "65f000000000000000000001", "Old Asset Code": "A-1", "To": "NP360", "When": "2024-03-05T10:00:00", "qty": 2},
			{"_id": {"$oid": "65f000000000000000000002"}, "Old Asset Code": "A-2", "To": "TEST", "Operator": "amy"}
		]`))
	})

	records, err := client.List(context.Background(), domain.RecordTransfer, []string{"NP360", "TEST"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "65f000000000000000000001" || records[0].Get("qty") != "2" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].ID != "65f000000000000000000002" || records[1].Get(domain.FieldOperator) != "amy" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
	for _, r := range records {
		if r.Type != domain.RecordTransfer {
			t.Errorf("expected type set, got %q", r.Type)
		}
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
		message      string
	}{
		{"expired token", http.StatusUnauthorized, `{"message": "Token is invalid!"}`, true, "Token is invalid!"},
		{"not found", http.StatusNotFound, `{"message": "Asset not found"}`, false, "Asset not found"},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := client.Delete(context.Background(), domain.RecordAsset, "x")
			if err == nil {
				t.Fatal("expected error but got none")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if errors.Is(err, ports.ErrUnauthorized) != tt.unauthorized {
				t.Errorf("unauthorized mapping wrong for %d", tt.status)
			}
			if got := services.DisplayMessage(err, services.MsgDeleteFailed); tt.message != "" && got != tt.message {
				t.Errorf("expected %q, got %q", tt.message, got)
			} else if tt.message == "" && got != services.MsgDeleteFailed {
				t.Errorf("expected fallback, got %q", got)
			}
		})
	}
}

func TestClient_Add(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/disposals/add" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
			return
		}
		if payload["reasonBase"] != "Sold to Third Party" || payload["Vendor"] != "Acme" {
			t.Errorf("unexpected payload %v", payload)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Disposal record added",
			"item": map[string]any{
				"_id":            "65f0000000000000000000d1",
				"Old Asset Code": payload["Old Asset Code"],
				"Reason":         "Sold To Acme",
			},
		})
	})

	item, err := client.Add(context.Background(), domain.RecordDisposal, map[string]string{
		"Location":       "NP360",
		"Old Asset Code": "A-1",
		"reasonBase":     "Sold to Third Party",
		"Vendor":         "Acme",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Type != domain.RecordDisposal || item.Get(domain.FieldReason) != "Sold To Acme" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestClient_Update(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assets/update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			ID    string            `json:"id"`
			After map[string]string `json:"After"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if body.ID != "a1" || body.After["Details"] != "Pump" {
			t.Errorf("unexpected body %+v", body)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Asset updated"})
	})

	if err := client.Update(context.Background(), domain.RecordAsset, "a1", map[string]string{"Details": "Pump"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_LoginAndProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var req loginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if !req.Remember7Days {
				t.Error("expected remember flag forwarded")
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Login successful!",
				"token":   "jwt",
				"user":    map[string]any{"userId": req.UserID, "userName": "Amy", "parkIds": []string{"NP1"}},
			})
		case "/api/profile":
			writeJSON(w, http.StatusOK, map[string]any{
				"user": map[string]any{
					"userId":  "amy",
					"parkIds": []string{"NP1"},
					"parks":   []map[string]string{{"parkId": "NP1", "name": "North", "areaCode": "N"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})

	token, user, err := client.Login(context.Background(), "amy", "secret", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "jwt" || user.UserName != "Amy" {
		t.Errorf("unexpected login result %q %+v", token, user)
	}

	profile, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.Parks) != 1 || profile.Parks[0].AreaCode != "N" {
		t.Errorf("expected expanded parks, got %+v", profile.Parks)
	}
}

func TestClient_ContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.ListParks(ctx); err == nil {
		t.Error("expected error for a cancelled context")
	}
}
