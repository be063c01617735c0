package audit

import (
	"context"
	"testing"

	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.AuditEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func auditCtx(accountID, userID int64) context.Context {
	return repository.WithScope(context.Background(), repository.Scope{AccountID: accountID, UserID: userID})
}

func TestRecordStampsScope(t *testing.T) {
	db := newAuditTestDB(t)
	r := NewRecorder(db, logger.NewNop())

	r.Record(auditCtx(1, 10), Entry{
		Action:      "workspace.created",
		SubjectKind: SubjectWorkspace,
		SubjectID:   42,
		Metadata:    database.JSONB{"slug": "acme"},
	})

	var got model.AuditEvent
	if err := db.First(&got).Error; err != nil {
		t.Fatalf("event not written: %v", err)
	}
	if got.AccountID != 1 || got.UserID != 10 {
		t.Fatalf("scope not stamped: account=%d user=%d", got.AccountID, got.UserID)
	}
	if got.SubjectKind != string(SubjectWorkspace) || got.SubjectID != 42 {
		t.Fatalf("subject wrong: %s/%d", got.SubjectKind, got.SubjectID)
	}
}

func TestRecordRejectsUnknownSubjectKind(t *testing.T) {
	db := newAuditTestDB(t)
	r := NewRecorder(db, logger.NewNop())

	r.Record(auditCtx(1, 10), Entry{
		Action:      "something.happened",
		SubjectKind: SubjectKind("invoice"),
		SubjectID:   1,
	})

	var count int64
	db.Model(&model.AuditEvent{}).Count(&count)
	if count != 0 {
		t.Fatalf("event with unknown subject kind was written")
	}
}

func TestRecordFailureDoesNotPanicOrPropagate(t *testing.T) {
	db := newAuditTestDB(t)
	r := NewRecorder(db, logger.NewNop())

	// 缺少作用域且未显式指定账户：写入失败，但 Record 不得外抛
	r.Record(context.Background(), Entry{
		Action:      "account.created",
		SubjectKind: SubjectAccount,
		SubjectID:   1,
	})

	var count int64
	db.Model(&model.AuditEvent{}).Count(&count)
	if count != 0 {
		t.Fatalf("unscoped event was written")
	}
}

func TestRecordExplicitTenantOverride(t *testing.T) {
	db := newAuditTestDB(t)
	r := NewRecorder(db, logger.NewNop())

	// 切换场景：当前作用域是账户 1，事件归属目标账户 2
	r.Record(auditCtx(1, 10), Entry{
		Action:      "account.switched",
		SubjectKind: SubjectAccount,
		SubjectID:   2,
		AccountID:   2,
		Metadata:    database.JSONB{"from_account_id": "1", "to_account_id": "2"},
	})

	var got model.AuditEvent
	if err := db.First(&got).Error; err != nil {
		t.Fatalf("event not written: %v", err)
	}
	if got.AccountID != 2 {
		t.Fatalf("override ignored, account=%d", got.AccountID)
	}
	if got.UserID != 10 {
		t.Fatalf("actor should still come from scope, user=%d", got.UserID)
	}
}

func TestListIsTenantScoped(t *testing.T) {
	db := newAuditTestDB(t)
	r := NewRecorder(db, logger.NewNop())

	r.Record(auditCtx(1, 10), Entry{Action: "team.created", SubjectKind: SubjectTeam, SubjectID: 1})
	r.Record(auditCtx(2, 20), Entry{Action: "team.created", SubjectKind: SubjectTeam, SubjectID: 2})

	page, err := r.List(auditCtx(1, 10), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.List) != 1 {
		t.Fatalf("expected exactly the own tenant's event, got total=%d", page.Total)
	}
	if page.List[0].AccountID != 1 {
		t.Fatalf("foreign event leaked")
	}
}

type failingStream struct{ called bool }

func (s *failingStream) Publish(_ context.Context, _ *model.AuditEvent) error {
	s.called = true
	return context.DeadlineExceeded
}

func TestStreamFailureDoesNotLoseEvent(t *testing.T) {
	db := newAuditTestDB(t)
	stream := &failingStream{}
	r := NewRecorder(db, logger.NewNop(), WithStream(stream))

	r.Record(auditCtx(1, 10), Entry{Action: "user.invited", SubjectKind: SubjectMembership, SubjectID: 5})

	if !stream.called {
		t.Fatalf("stream was not invoked")
	}
	var count int64
	db.Model(&model.AuditEvent{}).Count(&count)
	if count != 1 {
		t.Fatalf("event lost on stream failure, count=%d", count)
	}
}
