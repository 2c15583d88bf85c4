package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kamal-hamza/assetctl/internal/adapters/httpapi"
	"github.com/kamal-hamza/assetctl/internal/backend/auth"
	"github.com/kamal-hamza/assetctl/internal/backend/db"
	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

const testJWTSecret = "test-secret"

type tokenHolder struct{ token string }

func (h *tokenHolder) Token() (string, error) { return h.token, nil }

func setupTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.New(db.NewTestDB(t), store.DefaultUTCOffset)

	ctx := context.Background()
	st.CreateArea(ctx, domain.Area{AreaID: "1", Code: "N", Name: "North"})
	st.CreatePark(ctx, domain.Park{ParkID: "NP1", Name: "North 1", AreaCode: "N"})
	st.CreatePark(ctx, domain.Park{ParkID: "NP2", Name: "North 2", AreaCode: "N"})
	if _, err := st.CreateUser(ctx, domain.User{UserID: "amy", UserName: "Amy", ParkIDs: []string{"NP1", "NP2"}}, "secret"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(st, Options{JWTSecret: testJWTSecret, Logger: logger})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, st
}

func loggedInClient(t *testing.T, server *httptest.Server) *httpapi.Client {
	t.Helper()
	tokens := &tokenHolder{}
	client := httpapi.NewClient(server.URL, 5*time.Second, tokens)

	token, user, err := client.Login(context.Background(), "amy", "secret", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.UserName != "Amy" {
		t.Fatalf("unexpected login user %+v", user)
	}
	tokens.token = token
	return client
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return body.Message
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"missing password", map[string]any{"userId": "amy"}, http.StatusBadRequest, "UserId and password are required!"},
		{"wrong password", map[string]any{"userId": "amy", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials!"},
		{"unknown user", map[string]any{"userId": "bob", "password": "secret"}, http.StatusUnauthorized, "Invalid credentials!"},
		{"valid", map[string]any{"userId": "amy", "password": "secret", "remember7Days": true}, http.StatusOK, "Login successful!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, server.URL+"/api/login", "", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if msg := decodeMessage(t, resp); msg != tt.message {
				t.Errorf("expected %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestRememberedLoginLastsAWeek(t *testing.T) {
	server, _ := setupTestServer(t)
	client := httpapi.NewClient(server.URL, 5*time.Second, nil)

	token, _, err := client.Login(context.Background(), "amy", "secret", true)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ValidateToken(testJWTSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if left := time.Until(claims.ExpiresAt.Time); left < 6*24*time.Hour {
		t.Errorf("expected a 7 day token, expires in %v", left)
	}
}

func TestAuthRequired(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/parks")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized || decodeMessage(t, resp) != "Token is missing!" {
		t.Errorf("expected missing token rejection, got %d", resp.StatusCode)
	}

	bad := httpapi.NewClient(server.URL, 5*time.Second, &tokenHolder{token: "garbage"})
	_, err = bad.ListParks(context.Background())
	if !errors.Is(err, ports.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *httpapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Token is invalid!" {
		t.Errorf("expected invalid token message, got %v", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := setupTestServer(t)
	client := httpapi.NewClient(server.URL, 5*time.Second, nil)

	msg, err := client.Health(context.Background())
	if err != nil || msg != "Backend server is running!" {
		t.Fatalf("health: %q %v", msg, err)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `assetctl_http_requests_total{code="200",route="GET /api/health"}`) {
		t.Errorf("expected health request counted, got:\n%s", body)
	}
}

func TestProfileAndLocations(t *testing.T) {
	server, _ := setupTestServer(t)
	client := loggedInClient(t, server)
	ctx := context.Background()

	user, err := client.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(user.Parks) != 2 || user.Parks[0].Name != "North 1" {
		t.Errorf("expected expanded parks, got %+v", user.Parks)
	}

	areas, err := client.ListAreas(ctx)
	if err != nil || len(areas) != 1 || areas[0].Code != "N" {
		t.Errorf("unexpected areas %+v (%v)", areas, err)
	}
	parks, err := client.ListParks(ctx)
	if err != nil || len(parks) != 2 {
		t.Errorf("unexpected parks %+v (%v)", parks, err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	server, st := setupTestServer(t)
	client := loggedInClient(t, server)
	ctx := context.Background()

	asset, err := client.Add(ctx, domain.RecordAsset, map[string]string{
		domain.FieldLocation: "NP1",
		domain.FieldDetails:  "Pump",
		domain.FieldOldCode:  "A-1",
	})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}
	if asset.ID == "" || asset.Get(domain.FieldAreaCode) != "N" || asset.Get(domain.FieldOperator) != "Amy" {
		t.Errorf("unexpected created asset %+v", asset)
	}

	if _, err := client.Add(ctx, domain.RecordTransfer, map[string]string{
		domain.FieldOldCode: "A-1",
		domain.FieldTo:      "NP2",
		domain.FormWhenDate: "2024-05-01",
	}); err != nil {
		t.Fatalf("add transfer: %v", err)
	}

	assets, err := client.List(ctx, domain.RecordAsset, []string{"NP2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != asset.ID {
		t.Fatalf("expected the asset to follow its transfer, got %+v", assets)
	}

	if err := client.Update(ctx, domain.RecordAsset, asset.ID, map[string]string{domain.FieldDetails: "Big pump"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := st.GetRecord(ctx, domain.RecordAsset, asset.ID)
	if stored.Get(domain.FieldDetails) != "Big pump" {
		t.Errorf("expected update stored, got %+v", stored.Values)
	}

	if err := client.Delete(ctx, domain.RecordAsset, asset.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = client.Delete(ctx, domain.RecordAsset, asset.ID)
	var apiErr *httpapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "Asset not found" {
		t.Errorf("expected 404 Asset not found, got %v", err)
	}

	logs, _ := st.ListLogs(ctx, domain.RecordAsset, asset.ID)
	if len(logs) != 3 {
		t.Errorf("expected add, edit and delete logs, got %d", len(logs))
	}
}

func TestRecordErrors(t *testing.T) {
	server, _ := setupTestServer(t)
	client := loggedInClient(t, server)
	ctx := context.Background()

	_, err := client.Add(ctx, domain.RecordDisposal, map[string]string{
		domain.FieldLocation:  "NP1",
		domain.FieldOldCode:   "A-1",
		domain.FormReasonBase: domain.ReasonSold,
	})
	var apiErr *httpapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "Vendor is required for selected reason!" {
		t.Errorf("expected vendor validation, got %v", err)
	}

	err = client.Update(ctx, domain.RecordTransfer, "", map[string]string{})
	if !errors.As(err, &apiErr) || apiErr.Message != "id is required" {
		t.Errorf("expected id validation, got %v", err)
	}

	err = client.Update(ctx, domain.RecordTransfer, "nope", map[string]string{})
	if !errors.As(err, &apiErr) || apiErr.Message != "Transfer not found" {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListAllLocations(t *testing.T) {
	server, st := setupTestServer(t)
	client := loggedInClient(t, server)
	ctx := context.Background()

	for _, loc := range []string{"NP1", "NP2", "ZZ9"} {
		if _, err := st.AddRecord(ctx, domain.RecordDisposal, "Amy", map[string]string{
			domain.FieldLocation: loc, domain.FieldOldCode: "A-" + loc, domain.FormReasonBase: domain.ReasonScrapped,
		}); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}

	all, err := client.List(ctx, domain.RecordDisposal, []string{"ALL"})
	if err != nil || len(all) != 3 {
		t.Errorf("expected ALL to skip the filter, got %d (%v)", len(all), err)
	}
	some, err := client.List(ctx, domain.RecordDisposal, []string{"NP1"})
	if err != nil || len(some) != 1 {
		t.Errorf("expected one record, got %d (%v)", len(some), err)
	}
}
