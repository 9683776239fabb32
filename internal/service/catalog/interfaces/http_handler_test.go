package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/auth/authtest"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/service/catalog/application"
	"sportshub/internal/service/catalog/infrastructure"
)

func newTestServer(t *testing.T, limit httpx.Middleware) *httptest.Server {
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
	svc := application.NewCatalogService(infrastructure.NewGormListingRepository(db), nil, noop.NewTracerProvider().Tracer("test"), application.Options{})
	mux := http.NewServeMux()
	NewCatalogHandler(svc, authtest.Verifier().Require(), limit).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

func do(t *testing.T, method, url, token, body string) (int, envelope) {
	t.Helper()
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestListingAndSearchOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := authtest.Bearer(t, "owner-7", auth.RoleSupplier)

	code, env := do(t, http.MethodPost, srv.URL+"/listings", owner,
		`{"kind":"coach","name":"Coach Ravi","city":"Bangalore","sports":["cricket"],"price":600,"rating":4.2,"latitude":12.97,"longitude":77.59}`)
	if code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	var created ListingDTO
	json.Unmarshal(env.Data, &created)

	code, env = do(t, http.MethodGet, srv.URL+"/listings/coach/"+created.ID, "", "")
	if code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}
	var got ListingDTO
	json.Unmarshal(env.Data, &got)
	if got.OwnerID != "owner-7" || got.ID != created.ID {
		t.Fatalf("unexpected listing %+v", got)
	}
	if code, _ = do(t, http.MethodGet, srv.URL+"/listings/turf/"+created.ID, "", ""); code != http.StatusNotFound {
		t.Fatalf("wrong kind must be 404, got %d", code)
	}

	code, env = do(t, http.MethodGet, srv.URL+"/coaches?sport=cricket&latitude=12.97&longitude=77.59&sortBy=priority", "", "")
	if code != http.StatusOK {
		t.Fatalf("search: %d", code)
	}
	var res SearchResultDTO
	json.Unmarshal(env.Data, &res)
	if res.Total != 1 || res.TotalPages != 1 || res.Items[0].Distance == nil || res.Items[0].Boost != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	code, env = do(t, http.MethodGet, srv.URL+"/turfs?limit=0", "", "")
	if code != http.StatusBadRequest || env.Error.Kind != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %d %s", code, env.Error.Kind)
	}
	if code, _ = do(t, http.MethodPost, srv.URL+"/listings", "", `{}`); code != http.StatusUnauthorized {
		t.Fatalf("create requires auth, got %d", code)
	}
}

func TestSearchIsRateLimited(t *testing.T) {
	limiter, err := httpx.NewClientLimiter(0.001, 2)
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, limiter.Middleware())
	for i := 0; i < 2; i++ {
		if code, _ := do(t, http.MethodGet, srv.URL+"/academies", "", ""); code != http.StatusOK {
			t.Fatalf("request %d: %d", i, code)
		}
	}
	code, env := do(t, http.MethodGet, srv.URL+"/academies", "", "")
	if code != http.StatusTooManyRequests || env.Error.Kind != "RATE_LIMITED" {
		t.Fatalf("expected 429, got %d %s", code, env.Error.Kind)
	}
}
