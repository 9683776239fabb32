package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/promotion/domain"
)

var day0 = time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *GormTransactionRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormTransactionRepository(db)
}

func seed(t *testing.T, repo *GormTransactionRepository, ref listing.Ref, plan string, at time.Time) *domain.PromotionTransaction {
	t.Helper()
	p, err := domain.DefaultPlans().Lookup(plan)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := domain.NewTransaction("sup-1", ref, p, at)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(context.Background(), tx); err != nil {
		t.Fatalf("create: %v", err)
	}
	return tx
}

func pay(repo *GormTransactionRepository, id string, amount float64, at time.Time) (*domain.PromotionTransaction, error) {
	return repo.Activate(context.Background(), id, func(t *domain.PromotionTransaction) error {
		return t.Pay(domain.Payment{PaymentID: "pay-" + id, Amount: amount, Method: "card"}, at)
	})
}

func TestActivateSupersedesEarlierPaidPromotion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	coach := listing.Ref{Kind: listing.KindCoach, ID: "coach-1"}

	first := seed(t, repo, coach, "platinum", day0)
	if _, err := pay(repo, first.ID, 2999, day0); err != nil {
		t.Fatalf("pay first: %v", err)
	}
	second := seed(t, repo, coach, "basic", day0.Add(time.Hour))
	if _, err := pay(repo, second.ID, 499, day0.Add(time.Hour)); err != nil {
		t.Fatalf("pay second: %v", err)
	}

	got, err := repo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusExpired {
		t.Fatalf("superseded promotion should be expired, got %s", got.Status)
	}

	active, err := repo.ActiveFor(ctx, coach, day0.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected exactly the second promotion active, got %+v", active)
	}
	if b := domain.BoostAt(active, day0.Add(2*time.Hour)); b != 10 {
		t.Fatalf("expected boost 10, got %d", b)
	}
}

func TestActivateIsNotIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	tx := seed(t, repo, listing.Ref{Kind: listing.KindTurf, ID: "turf-1"}, "premium", day0)

	if _, err := pay(repo, tx.ID, 1499, day0); err != nil {
		t.Fatal(err)
	}
	if _, err := pay(repo, tx.ID, 1499, day0); !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("second payment must fail with not pending, got %v", err)
	}
	if _, err := pay(repo, "missing", 1499, day0); !errors.Is(err, domain.ErrPromotionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectedPaymentLeavesTransactionPending(t *testing.T) {
	repo := newTestRepo(t)
	tx := seed(t, repo, listing.Ref{Kind: listing.KindAcademy, ID: "ac-1"}, "basic", day0)

	if _, err := pay(repo, tx.ID, 10, day0); !errors.Is(err, domain.ErrInsufficientAmount) {
		t.Fatalf("expected insufficient amount, got %v", err)
	}
	got, _ := repo.FindByID(context.Background(), tx.ID)
	if got.Status != domain.StatusPending || got.PaymentRef != "" {
		t.Fatalf("transaction must stay pending, got %+v", got)
	}
}

func TestMaxBoostsAndExpireStale(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := listing.Ref{Kind: listing.KindCoach, ID: "a"}
	b := listing.Ref{Kind: listing.KindCoach, ID: "b"}
	ta := seed(t, repo, a, "premium", day0)
	tb := seed(t, repo, b, "basic", day0)
	seed(t, repo, listing.Ref{Kind: listing.KindCoach, ID: "c"}, "platinum", day0) // 未支付
	if _, err := pay(repo, ta.ID, 1499, day0); err != nil {
		t.Fatal(err)
	}
	if _, err := pay(repo, tb.ID, 499, day0); err != nil {
		t.Fatal(err)
	}

	day3 := day0.AddDate(0, 0, 3)
	boosts, err := repo.MaxBoosts(ctx, listing.KindCoach, []string{"a", "b", "c"}, day3)
	if err != nil {
		t.Fatal(err)
	}
	if boosts["a"] != 50 || boosts["b"] != 10 {
		t.Fatalf("unexpected boosts %v", boosts)
	}
	if _, ok := boosts["c"]; ok {
		t.Fatalf("unpaid promotion must not boost: %v", boosts)
	}

	// basic 7 天后过期，premium 仍然有效
	day10 := day0.AddDate(0, 0, 10)
	boosts, _ = repo.MaxBoosts(ctx, listing.KindCoach, []string{"a", "b"}, day10)
	if boosts["a"] != 50 || boosts["b"] != 0 {
		t.Fatalf("window must decide liveness, got %v", boosts)
	}

	n, err := repo.ExpireStale(ctx, day10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one stale row corrected, got %d", n)
	}
	got, _ := repo.FindByID(ctx, tb.ID)
	if got.Status != domain.StatusExpired {
		t.Fatalf("expected expired, got %s", got.Status)
	}
}
