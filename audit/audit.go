package audit

import (
	"context"

	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/metrics"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * Audit - 审计日志
 * ========================================================================
 * 职责: 为敏感操作追加不可变的审计事件
 * 设计: 只有 Record 和 List，没有更新/删除入口；写入失败不回滚
 *       业务操作，但必须记错误日志并计入失败指标；
 *       subject 是封闭枚举 + ID，不接受自由字符串
 * ======================================================================== */

// SubjectKind 审计对象类型（封闭枚举）
type SubjectKind string

const (
	SubjectAccount    SubjectKind = "account"
	SubjectWorkspace  SubjectKind = "workspace"
	SubjectTeam       SubjectKind = "team"
	SubjectUser       SubjectKind = "user"
	SubjectMembership SubjectKind = "membership"
)

// Valid 是否为已知对象类型
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectAccount, SubjectWorkspace, SubjectTeam, SubjectUser, SubjectMembership:
		return true
	}
	return false
}

// Entry 一条待记录的审计事件
// 执行者和归属租户默认取自请求作用域，跨租户动作（如切换）
// 可以显式覆盖
type Entry struct {
	Action      string
	SubjectKind SubjectKind
	SubjectID   int64
	Metadata    database.JSONB
	IP          string
	UserAgent   string

	// 覆盖项，零值表示取作用域
	AccountID   int64
	WorkspaceID *int64
	UserID      int64
}

// Stream 审计事件的外发通道（如 Kafka），可选
type Stream interface {
	Publish(ctx context.Context, event *model.AuditEvent) error
}

// Recorder 审计记录器
type Recorder struct {
	events repository.Repository[model.AuditEvent]
	stream Stream
	log    *logger.Logger
}

// Option Recorder 配置项
type Option func(*Recorder)

// WithStream 启用事件外发
func WithStream(s Stream) Option {
	return func(r *Recorder) {
		r.stream = s
	}
}

// NewRecorder 创建审计记录器
func NewRecorder(db *gorm.DB, log *logger.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		events: repository.NewRepository[model.AuditEvent](db),
		log:    log.Named("audit"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record 追加一条审计事件
// 失败时记录错误日志并递增失败计数，不向调用方返回错误——
// 审计失败绝不能让已经成功的业务操作回滚
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if err := r.record(ctx, e); err != nil {
		metrics.AuditWriteFailureTotal.Inc()
		r.log.Error("audit write failed",
			zap.String("action", e.Action),
			zap.String("subject_kind", string(e.SubjectKind)),
			zap.Int64("subject_id", e.SubjectID),
			zap.Error(err),
		)
	}
}

func (r *Recorder) record(ctx context.Context, e Entry) error {
	if e.Action == "" {
		return errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "audit action is required")
	}
	if !e.SubjectKind.Valid() {
		return errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "unknown subject kind %q", e.SubjectKind)
	}

	event := &model.AuditEvent{
		Action:      e.Action,
		SubjectKind: string(e.SubjectKind),
		SubjectID:   e.SubjectID,
		Metadata:    e.Metadata,
		IP:          e.IP,
		UserAgent:   e.UserAgent,
		AccountID:   e.AccountID,
		WorkspaceID: e.WorkspaceID,
		UserID:      e.UserID,
	}

	scope, hasScope := repository.ScopeFromContext(ctx)
	if hasScope {
		if event.UserID == 0 {
			event.UserID = scope.UserID
		}
		if event.AccountID == 0 {
			event.AccountID = scope.AccountID
		}
		if event.WorkspaceID == nil {
			event.WorkspaceID = scope.WorkspaceID
		}
	}
	if event.AccountID == 0 {
		return errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "audit event has no account")
	}

	// 覆盖了归属时按目标账户写入，仓储层据此盖章
	writeCtx := ctx
	if !hasScope || event.AccountID != scope.AccountID {
		writeCtx = repository.WithScope(ctx, repository.Scope{
			AccountID:   event.AccountID,
			WorkspaceID: event.WorkspaceID,
			UserID:      event.UserID,
		})
	}

	if err := r.events.Create(writeCtx, event); err != nil {
		return err
	}

	if r.stream != nil {
		if err := r.stream.Publish(ctx, event); err != nil {
			// 外发是尽力而为，落库成功即视为记录成功
			r.log.Warn("audit stream publish failed",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// List 分页查询当前租户的审计事件，按时间倒序
func (r *Recorder) List(ctx context.Context, page, pageSize int) (*repository.PageResult[model.AuditEvent], error) {
	return r.events.FindPage(ctx, page, pageSize, "")
}
