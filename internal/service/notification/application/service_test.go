package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/events"
	"sportshub/internal/service/notification/domain"
	"sportshub/internal/service/notification/infrastructure"
)

type fakeRealtime struct {
	online    map[string]bool
	delivered []string
}

func (f *fakeRealtime) Deliver(_ context.Context, n *domain.Notification) (bool, error) {
	if !f.online[n.Recipient.Key()] {
		return false, nil
	}
	f.delivered = append(f.delivered, n.ID)
	return true, nil
}

type fakePush struct {
	sent []string
	fail bool
}

func (f *fakePush) Send(_ context.Context, tok *domain.PushToken, n *domain.Notification) error {
	if f.fail {
		return errors.New("gateway down")
	}
	f.sent = append(f.sent, tok.Token+"/"+n.ID)
	return nil
}

func newTestService(t *testing.T, rt *fakeRealtime, push *fakePush) *DispatchService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := infrastructure.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}

	router, err := domain.NewChannelRouter([]domain.ChannelRule{
		{Channel: domain.ChannelRealtime, Expr: "true"},
		{Channel: domain.ChannelPush, Expr: `notification.priority == "high"`},
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewDispatchService(infrastructure.NewGormNotificationRepository(db), router, rt, push,
		noop.NewTracerProvider().Tracer("test"), 24*time.Hour)
}

func TestDispatchPersistsThenDelivers(t *testing.T) {
	rt := &fakeRealtime{online: map[string]bool{"user:u-1": true}}
	push := &fakePush{}
	svc := newTestService(t, rt, push)
	ctx := context.Background()

	if _, err := svc.RegisterPushToken(ctx, &RegisterPushTokenRequest{
		RecipientType: "user", RecipientID: "u-1", Token: "dev-1", Platform: "ios",
	}); err != nil {
		t.Fatal(err)
	}

	e := events.New("user", "u-1", events.TypeBookingConfirmation, "Confirmed", "your slot is booked")
	e.Priority = events.PriorityHigh
	if err := svc.Dispatch(ctx, e); err != nil {
		t.Fatal(err)
	}
	// 重复投递同一事件：不重复写入，也不重复推送
	if err := svc.Dispatch(ctx, e); err != nil {
		t.Fatal(err)
	}
	if len(rt.delivered) != 1 || len(push.sent) != 1 || push.sent[0] != "dev-1/"+e.EventID {
		t.Fatalf("expected exactly one realtime and one push, got %v %v", rt.delivered, push.sent)
	}

	r := domain.Recipient{Kind: domain.RecipientUser, ID: "u-1"}
	items, page, err := svc.List(ctx, r, false, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || len(items) != 1 || items[0].ID != e.EventID {
		t.Fatalf("unexpected inbox %+v", page)
	}
}

func TestDispatchSurvivesChannelFailures(t *testing.T) {
	rt := &fakeRealtime{online: map[string]bool{}}
	push := &fakePush{fail: true}
	svc := newTestService(t, rt, push)
	ctx := context.Background()

	if _, err := svc.RegisterPushToken(ctx, &RegisterPushTokenRequest{
		RecipientType: "user", RecipientID: "u-9", Token: "dev-9", Platform: "android",
	}); err != nil {
		t.Fatal(err)
	}
	e := events.New("user", "u-9", events.TypeBookingRejection, "Rejected", "sorry")
	e.Priority = events.PriorityHigh
	if err := svc.Dispatch(ctx, e); err != nil {
		t.Fatalf("channel failures must not fail dispatch: %v", err)
	}
	_, page, err := svc.List(ctx, domain.Recipient{Kind: domain.RecipientUser, ID: "u-9"}, true, 1, 20)
	if err != nil || page.Total != 1 {
		t.Fatalf("notification must still be stored, got %+v %v", page, err)
	}
}

func TestDispatchRejectsInvalidEvents(t *testing.T) {
	svc := newTestService(t, &fakeRealtime{}, nil)
	e := events.New("stadium", "x", events.TypeNewRequest, "t", "m")
	if err := svc.Dispatch(context.Background(), e); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	e = events.New("user", "u-1", events.TypeNewRequest, "t", "m")
	e.EventID = ""
	if err := svc.Dispatch(context.Background(), e); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for missing event id, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	svc := newTestService(t, &fakeRealtime{}, nil)
	ctx := context.Background()
	e := events.New("user", "u-1", events.TypeNewRequest, "New", "request")
	if err := svc.Dispatch(ctx, e); err != nil {
		t.Fatal(err)
	}

	stranger := domain.Recipient{Kind: domain.RecipientUser, ID: "u-2"}
	if _, err := svc.MarkRead(ctx, e.EventID, stranger); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	owner := domain.Recipient{Kind: domain.RecipientUser, ID: "u-1"}
	n, err := svc.MarkRead(ctx, e.EventID, owner)
	if err != nil || !n.IsRead || n.ReadAt == nil {
		t.Fatalf("expected read notification, got %+v %v", n, err)
	}
	if _, err := svc.MarkRead(ctx, e.EventID, owner); err != nil {
		t.Fatalf("mark read must be idempotent: %v", err)
	}
	_, page, err := svc.List(ctx, owner, true, 1, 20)
	if err != nil || page.Total != 0 {
		t.Fatalf("no unread notifications expected, got %+v %v", page, err)
	}
	if _, err := svc.MarkRead(ctx, "missing", owner); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
