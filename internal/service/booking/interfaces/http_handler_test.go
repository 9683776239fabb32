package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/auth/authtest"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/booking/application"
	"sportshub/internal/service/booking/infrastructure"
)

type ownerDirectory struct{}

func (ownerDirectory) OwnerOf(_ context.Context, ref listing.Ref) (string, error) {
	return "owner-1", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := infrastructure.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}

	svc := application.NewBookingService(infrastructure.NewGormSlotRepository(db), ownerDirectory{}, nil, nil, noop.NewTracerProvider().Tracer("test"))
	mux := http.NewServeMux()
	NewBookingHandler(svc, authtest.Verifier().Require()).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()
	req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestBookingFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	owner := authtest.Bearer(t, "owner-1", auth.RoleSupplier)
	alice := authtest.Bearer(t, "alice", auth.RoleUser)
	bob := authtest.Bearer(t, "bob", auth.RoleUser)

	start := time.Date(2031, 3, 1, 17, 0, 0, 0, time.UTC)
	body := `{"parentType":"turf","parentId":"turf-9","startTime":"` + start.Format(time.RFC3339) +
		`","endTime":"` + start.Add(time.Hour).Format(time.RFC3339) + `","price":900}`

	if code, _ := call(t, srv, http.MethodPost, "/slots", "", body); code != http.StatusUnauthorized {
		t.Fatalf("define without token: expected 401, got %d", code)
	}
	code, env := call(t, srv, http.MethodPost, "/slots", owner, body)
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("define slot: %d %+v", code, env)
	}
	var slot SlotDTO
	json.Unmarshal(env.Data, &slot)

	code, env = call(t, srv, http.MethodPost, "/slots/"+slot.ID+"/book", alice, `{"teamSize":10}`)
	if code != http.StatusCreated {
		t.Fatalf("book: %d %+v", code, env)
	}
	var req RequestDTO
	json.Unmarshal(env.Data, &req)
	if req.Status != "pending" {
		t.Fatalf("expected pending request, got %s", req.Status)
	}

	code, env = call(t, srv, http.MethodPost, "/slots/"+slot.ID+"/book", bob, "")
	if code != http.StatusConflict || env.Error.Kind != "CONFLICT" || env.Success {
		t.Fatalf("second booking: expected 409 conflict, got %d %+v", code, env)
	}

	if code, _ = call(t, srv, http.MethodPost, "/requests/"+req.ID+"/respond", bob, `{"action":"accept"}`); code != http.StatusForbidden {
		t.Fatalf("non-owner respond: expected 403, got %d", code)
	}
	if code, _ = call(t, srv, http.MethodPost, "/requests/"+req.ID+"/respond", owner, `{"action":"accept"}`); code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", code)
	}
	if code, _ = call(t, srv, http.MethodPost, "/requests/"+req.ID+"/respond", owner, `{"action":"decline"}`); code != http.StatusConflict {
		t.Fatalf("respond twice: expected 409, got %d", code)
	}

	code, env = call(t, srv, http.MethodPatch, "/slots/"+slot.ID+"/payment", owner, `{"paymentStatus":"paid"}`)
	if code != http.StatusOK {
		t.Fatalf("payment: %d %+v", code, env)
	}

	code, env = call(t, srv, http.MethodPost, "/slots/"+slot.ID+"/cancel", alice, `{"requestId":"`+req.ID+`"}`)
	if code != http.StatusOK {
		t.Fatalf("cancel: %d %+v", code, env)
	}

	code, env = call(t, srv, http.MethodGet, "/slots/"+slot.ID, "", "")
	json.Unmarshal(env.Data, &slot)
	if code != http.StatusOK || slot.Status != "available" {
		t.Fatalf("slot should be available again: %d %+v", code, slot)
	}

	code, env = call(t, srv, http.MethodGet, "/requests?userId=bob", alice, "")
	if code != http.StatusForbidden {
		t.Fatalf("users cannot list other users' requests, got %d", code)
	}
}

func TestUnknownSlotIs404(t *testing.T) {
	srv := newTestServer(t)
	code, env := call(t, srv, http.MethodPost, "/slots/nope/book", authtest.Bearer(t, "alice", auth.RoleUser), "")
	if code != http.StatusNotFound || env.Error.Kind != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %+v", code, env)
	}
}
