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
	"sportshub/internal/pkg/lock"
	"sportshub/internal/service/promotion/application"
	"sportshub/internal/service/promotion/domain"
	"sportshub/internal/service/promotion/infrastructure"
)

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

	svc := application.NewPromotionService(infrastructure.NewGormTransactionRepository(db), domain.DefaultPlans(),
		lock.NewKeyedMutex(), nil, noop.NewTracerProvider().Tracer("test"))
	mux := http.NewServeMux()
	NewPromotionHandler(svc, authtest.Verifier().Require()).RegisterRoutes(mux)

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

func TestPromotionFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	supplier := authtest.Bearer(t, "sup-1", auth.RoleSupplier)
	other := authtest.Bearer(t, "sup-2", auth.RoleSupplier)

	code, env := call(t, srv, http.MethodGet, "/promotions/plans", "", "")
	if code != http.StatusOK {
		t.Fatalf("plans: %d", code)
	}
	var plans []domain.Plan
	json.Unmarshal(env.Data, &plans)
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %v", plans)
	}

	code, env = call(t, srv, http.MethodPost, "/promotions", supplier, `{"serviceType":"coach","serviceId":"c-1","promotionPlan":"gold"}`)
	if code != http.StatusBadRequest || env.Error.Kind != "INVALID_PLAN" {
		t.Fatalf("expected INVALID_PLAN, got %d %s", code, env.Error.Kind)
	}

	code, env = call(t, srv, http.MethodPost, "/promotions", supplier, `{"serviceType":"coach","serviceId":"c-1","promotionPlan":"premium"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, env.Message)
	}
	var created PromotionDTO
	json.Unmarshal(env.Data, &created)
	if created.Status != "pending" || created.PriorityValue != 50 || created.Amount != 1499 {
		t.Fatalf("unexpected transaction %+v", created)
	}

	code, _ = call(t, srv, http.MethodPost, "/promotions/"+created.ID+"/payment", other, `{"paymentId":"p1","amount":1499}`)
	if code != http.StatusForbidden {
		t.Fatalf("other supplier must not pay, got %d", code)
	}
	code, env = call(t, srv, http.MethodPost, "/promotions/"+created.ID+"/payment", supplier, `{"paymentId":"p1","amount":1499,"method":"card"}`)
	if code != http.StatusOK {
		t.Fatalf("pay: %d %s", code, env.Message)
	}
	code, env = call(t, srv, http.MethodPost, "/promotions/"+created.ID+"/payment", supplier, `{"paymentId":"p2","amount":1499}`)
	if code != http.StatusConflict || env.Error.Kind != "INVALID_STATE" {
		t.Fatalf("second payment: expected 409 INVALID_STATE, got %d %s", code, env.Error.Kind)
	}

	code, env = call(t, srv, http.MethodGet, "/promotions/boost?serviceType=coach&serviceId=c-1", "", "")
	if code != http.StatusOK {
		t.Fatalf("boost: %d", code)
	}
	var boost BoostDTO
	json.Unmarshal(env.Data, &boost)
	if boost.Boost != 50 {
		t.Fatalf("expected boost 50, got %+v", boost)
	}

	code, env = call(t, srv, http.MethodGet, "/promotions/boosts?serviceType=coach&ids=c-1,c-2,c-1", "", "")
	if code != http.StatusOK {
		t.Fatalf("boosts: %d", code)
	}
	var boosts BoostsDTO
	json.Unmarshal(env.Data, &boosts)
	if boosts.Boosts["c-1"] != 50 || boosts.Boosts["c-2"] != 0 || len(boosts.Boosts) != 2 {
		t.Fatalf("unexpected boosts %+v", boosts)
	}

	code, env = call(t, srv, http.MethodGet, "/promotions", supplier, "")
	if code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	var list []PromotionDTO
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 || list[0].PaymentRef != "p1" {
		t.Fatalf("unexpected list %+v", list)
	}

	code, _ = call(t, srv, http.MethodPost, "/promotions/"+created.ID+"/cancel", supplier, "")
	if code != http.StatusConflict {
		t.Fatalf("paid promotion cannot be cancelled, got %d", code)
	}
	code, _ = call(t, srv, http.MethodGet, "/promotions", "", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("listing requires auth, got %d", code)
	}
}
