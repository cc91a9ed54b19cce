package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-pg/pg/v10"
)

var ErrNotFound = errors.New("workspace not found")

// Workspace is owned by the CRUD layer elsewhere in the product; this
// package only reads the columns the hosting control plane needs.
type Workspace struct {
	tableName struct{} `pg:"workspaces"`

	ID         int64  `json:"id" pg:"id,pk"`
	CompanyID  int64  `json:"company_id" pg:"company_id,notnull"`
	Name       string `json:"name" pg:"name"`
	EngineType string `json:"engine_type" pg:"engine_type,notnull"`
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Workspace, error)
}

var _ Repository = (*PGRepository)(nil)

type PGRepository struct {
	db *pg.DB
}

func NewPGRepository(db *pg.DB) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Workspace, error) {
	ws := &Workspace{ID: id}
	err := r.db.ModelContext(ctx, ws).WherePK().Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select workspace %d: %w", id, err)
	}
	return ws, nil
}
