package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gamehost/internal/session"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/redis/go-redis/v9"
)

var _ session.Repository = (*Repository)(nil)

type Repository struct {
	db    *pg.DB
	redis redis.Cmdable
}

func NewRepository(db *pg.DB, redis redis.Cmdable) *Repository {
	return &Repository{
		db:    db,
		redis: redis,
	}
}

// LiveSessionIndex enforces at most one active session per workspace at the
// database level; two racing Starts cannot both insert.
const LiveSessionIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS multiplayer_sessions_live_workspace
ON multiplayer_sessions (workspace_id)
WHERE status = 'active'`

func (r *Repository) Create(ctx context.Context, sess *session.Session) error {
	model := newSessionModel(sess)

	_, err := r.db.ModelContext(ctx, model).Insert()
	if err != nil {
		var pgErr pg.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return session.ErrActiveSessionExists
		}
		return err
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	if r.redis != nil {
		key := sessionCacheKey(id)
		val, err := r.redis.Get(ctx, key).Result()
		if err == nil {
			var cached SessionModel
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.toSession(), nil
			}
		}
	}

	model := &SessionModel{ID: id}
	err := r.db.ModelContext(ctx, model).WherePK().Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if b, err := json.Marshal(model); err == nil {
			_ = r.redis.Set(ctx, sessionCacheKey(id), b, sessionCacheTTL).Err()
		}
	}

	return model.toSession(), nil
}

func (r *Repository) FindActiveByWorkspace(ctx context.Context, workspaceID int64) (*session.Session, error) {
	model := &SessionModel{}
	err := r.db.ModelContext(ctx, model).
		Where("workspace_id = ?", workspaceID).
		Where("status = ?", session.StatusActive).
		Limit(1).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return model.toSession(), nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status session.Status) error {
	// 终态不可覆盖：并发 teardown 谁先写入谁算数
	res, err := r.db.ModelContext(ctx, (*SessionModel)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Where("status = ?", session.StatusActive).
		Update()
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		exists, err := r.db.ModelContext(ctx, (*SessionModel)(nil)).
			Where("id = ?", id).
			Exists()
		if err != nil {
			return err
		}
		if !exists {
			return session.ErrNotFound
		}
		// already terminal, treat as a no-op
	}

	// Invalidate cache
	if r.redis != nil {
		_ = r.redis.Del(ctx, sessionCacheKey(id)).Err()
	}

	return nil
}

func (r *Repository) ListActiveByCompany(ctx context.Context, companyID int64) ([]*session.ActiveSession, error) {
	var rows []activeSessionRow
	err := r.db.ModelContext(ctx, (*SessionModel)(nil)).
		ColumnExpr("ms.*").
		ColumnExpr("w.name AS workspace_name").
		ColumnExpr("w.engine_type AS engine_type").
		Join("JOIN workspaces AS w ON w.id = ms.workspace_id").
		Where("w.company_id = ?", companyID).
		Where("ms.status = ?", session.StatusActive).
		Order("ms.created_at DESC").
		Select(&rows)
	if err != nil {
		return nil, err
	}

	sessions := make([]*session.ActiveSession, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, &session.ActiveSession{
			Session:       *rows[i].SessionModel.toSession(),
			WorkspaceName: rows[i].WorkspaceName,
			EngineType:    rows[i].EngineType,
		})
	}
	return sessions, nil
}

func (r *Repository) ListLapsedActive(ctx context.Context, now time.Time) ([]*session.Session, error) {
	var models []SessionModel
	err := r.db.ModelContext(ctx, &models).
		Where("status = ?", session.StatusActive).
		Where("expires_at < ?", now).
		Order("expires_at ASC").
		Select()
	if err != nil {
		return nil, err
	}

	sessions := make([]*session.Session, 0, len(models))
	for i := range models {
		sessions = append(sessions, models[i].toSession())
	}
	return sessions, nil
}

func (r *Repository) StatsByCompany(ctx context.Context, companyID int64, dayStart time.Time) (*session.Stats, error) {
	companyScoped := func() *orm.Query {
		return r.db.ModelContext(ctx, (*SessionModel)(nil)).
			Join("JOIN workspaces AS w ON w.id = ms.workspace_id").
			Where("w.company_id = ?", companyID)
	}

	active, err := companyScoped().Where("ms.status = ?", session.StatusActive).Count()
	if err != nil {
		return nil, err
	}

	today, err := companyScoped().Where("ms.created_at >= ?", dayStart).Count()
	if err != nil {
		return nil, err
	}

	expired, err := companyScoped().Where("ms.status = ?", session.StatusExpired).Count()
	if err != nil {
		return nil, err
	}

	return &session.Stats{
		ActiveSessions:     active,
		TotalSessionsToday: today,
		ExpiredSessions:    expired,
	}, nil
}
