package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/booking/domain"
)

func newTestRepo(t *testing.T) *GormSlotRepository {
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
	// 内存库只存在于单个连接上
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormSlotRepository(db)
}

func seedSlot(t *testing.T, repo *GormSlotRepository, start time.Time) *domain.Slot {
	t.Helper()
	slot, err := domain.NewSlot(listing.Ref{Kind: listing.KindTurf, ID: "turf-1"}, "owner-1", start, start.Add(time.Hour), 1200)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateSlot(context.Background(), slot); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return slot
}

func newRequest(t *testing.T, slotID, userID string) *domain.SlotRequest {
	t.Helper()
	req, err := domain.NewSlotRequest(slotID, userID, domain.RequestDetails{TeamSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestConcurrentClaimsHaveExactlyOneWinner(t *testing.T) {
	repo := newTestRepo(t)
	slot := seedSlot(t, repo, time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC))

	const contenders = 8
	reqs := make([]*domain.SlotRequest, contenders)
	for i := range reqs {
		reqs[i] = newRequest(t, slot.ID, fmt.Sprintf("user-%d", i))
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(req *domain.SlotRequest) {
			defer wg.Done()
			err := repo.ClaimSlot(context.Background(), req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(reqs[i])
	}
	wg.Wait()

	if wins != 1 || conflicts != contenders-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d and %d", contenders-1, wins, conflicts)
	}
	got, err := repo.FindSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.SlotPending {
		t.Fatalf("slot should be pending, got %s", got.Status)
	}
	stored, err := repo.ListRequests(context.Background(), domain.RequestFilter{SlotID: slot.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("only the winning request may be persisted, got %d", len(stored))
	}
}

func TestDeclineReleasesSlotForFreshRequest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	slot := seedSlot(t, repo, time.Date(2030, 1, 2, 18, 0, 0, 0, time.UTC))

	first := newRequest(t, slot.ID, "user-1")
	if err := repo.ClaimSlot(ctx, first); err != nil {
		t.Fatal(err)
	}
	res, err := first.Respond(domain.ActionDecline, "owner-1", time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Resolve(ctx, res); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := repo.ClaimSlot(ctx, newRequest(t, slot.ID, "user-2")); err != nil {
		t.Fatalf("fresh request after decline should succeed: %v", err)
	}

	stored, err := repo.FindRequest(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.RequestRejected || stored.RespondedBy != "owner-1" || stored.RespondedAt == nil {
		t.Fatalf("unexpected stored request %+v", stored)
	}
}

func TestResolveIsConditionalOnCurrentStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	slot := seedSlot(t, repo, time.Date(2030, 1, 3, 18, 0, 0, 0, time.UTC))

	req := newRequest(t, slot.ID, "user-1")
	if err := repo.ClaimSlot(ctx, req); err != nil {
		t.Fatal(err)
	}
	accept, _ := req.Respond(domain.ActionAccept, "owner-1", time.Now().UTC())
	decline, _ := req.Respond(domain.ActionDecline, "owner-1", time.Now().UTC())

	if err := repo.Resolve(ctx, accept); err != nil {
		t.Fatal(err)
	}
	if err := repo.Resolve(ctx, decline); !errors.Is(err, domain.ErrRequestNotPending) {
		t.Fatalf("second response must lose the race with InvalidState, got %v", err)
	}
	got, _ := repo.FindSlot(ctx, slot.ID)
	if got.Status != domain.SlotBooked {
		t.Fatalf("slot should stay booked, got %s", got.Status)
	}
}

func TestCreateSlotRejectsOverlap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2030, 1, 4, 10, 0, 0, 0, time.UTC)
	seedSlot(t, repo, start)

	parent := listing.Ref{Kind: listing.KindTurf, ID: "turf-1"}
	overlap, _ := domain.NewSlot(parent, "owner-1", start.Add(30*time.Minute), start.Add(90*time.Minute), 100)
	if err := repo.CreateSlot(ctx, overlap); !errors.Is(err, domain.ErrSlotOverlap) {
		t.Fatalf("expected overlap conflict, got %v", err)
	}

	adjacent, _ := domain.NewSlot(parent, "owner-1", start.Add(time.Hour), start.Add(2*time.Hour), 100)
	if err := repo.CreateSlot(ctx, adjacent); err != nil {
		t.Fatalf("back-to-back slots must be allowed: %v", err)
	}

	other, _ := domain.NewSlot(listing.Ref{Kind: listing.KindTurf, ID: "turf-2"}, "owner-1", start, start.Add(time.Hour), 100)
	if err := repo.CreateSlot(ctx, other); err != nil {
		t.Fatalf("other parents are independent: %v", err)
	}
}

func TestBlockAndPaymentGuards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	slot := seedSlot(t, repo, time.Date(2030, 1, 5, 10, 0, 0, 0, time.UTC))

	if err := repo.UpdatePayment(ctx, slot.ID, domain.PaymentPaid); !errors.Is(err, domain.ErrSlotNotBooked) {
		t.Fatalf("payment on an unbooked slot must fail, got %v", err)
	}
	if err := repo.BlockSlot(ctx, slot.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.BlockSlot(ctx, slot.ID); !errors.Is(err, domain.ErrSlotNotBlockable) {
		t.Fatalf("blocking twice must fail, got %v", err)
	}
	if err := repo.ClaimSlot(ctx, newRequest(t, slot.ID, "user-1")); !errors.Is(err, domain.ErrSlotUnavailable) {
		t.Fatalf("blocked slot cannot be requested, got %v", err)
	}
	if err := repo.BlockSlot(ctx, "missing"); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReleasedSlotDropsPreviousPayment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	slot := seedSlot(t, repo, time.Date(2030, 1, 6, 18, 0, 0, 0, time.UTC))

	req := newRequest(t, slot.ID, "user-1")
	if err := repo.ClaimSlot(ctx, req); err != nil {
		t.Fatal(err)
	}
	accept, _ := req.Respond(domain.ActionAccept, "owner-1", time.Now().UTC())
	if err := repo.Resolve(ctx, accept); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdatePayment(ctx, slot.ID, domain.PaymentPaid); err != nil {
		t.Fatal(err)
	}

	req.Status = domain.RequestApproved
	booked, _ := repo.FindSlot(ctx, slot.ID)
	cancel, err := req.Cancel(booked, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Resolve(ctx, cancel); err != nil {
		t.Fatalf("resolve cancel: %v", err)
	}

	got, _ := repo.FindSlot(ctx, slot.ID)
	if got.Status != domain.SlotAvailable || got.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("expected available/unpaid, got %s/%s", got.Status, got.PaymentStatus)
	}
}
