package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

const leadColumns = `id, client_id, name, email, phone, tier, project_type, estimated_value,
	source, lead_source_detail, status, created_at`

// LeadRepository is the Postgres-backed lead store. The unique index on client_id
// makes ingestion idempotent across processes, not only within one.
type LeadRepository struct {
	DB *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Ingest(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	lead.Normalize()

	query := `
		INSERT INTO leads (client_id, name, email, phone, tier, project_type, estimated_value,
			source, lead_source_detail, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (client_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.DB.QueryRowxContext(ctx, query,
		lead.ClientID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Tier,
		lead.ProjectType,
		lead.EstimatedValue,
		lead.Source,
		lead.LeadSourceDetail,
		lead.Status,
	).Scan(&lead.ID, &lead.CreatedAt)

	if err == nil {
		return entity.IngestResult{LeadID: lead.ID, ClientID: lead.ClientID, Created: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entity.IngestResult{}, fmt.Errorf("insert lead: %w", err)
	}

	// ON CONFLICT DO NOTHING returns no row: the conversation already has a lead.
	var existing entity.Lead
	if err := r.DB.GetContext(ctx, &existing,
		`SELECT `+leadColumns+` FROM leads WHERE client_id = $1`, lead.ClientID); err != nil {
		return entity.IngestResult{}, fmt.Errorf("load existing lead: %w", err)
	}
	*lead = existing
	return entity.IngestResult{LeadID: existing.ID, ClientID: existing.ClientID}, nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	var (
		where []string
		args  []any
	)
	if filter.Tier != "" {
		args = append(args, filter.Tier)
		where = append(where, fmt.Sprintf("tier = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`

	leads := []entity.Lead{}
	if err := r.DB.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	var lead entity.Lead
	err := r.DB.GetContext(ctx, &lead, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, id int64, patch entity.LeadPatch) (*entity.Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var lead entity.Lead
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &lead, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ErrLeadNotFound
		}
		if err != nil {
			return err
		}

		patch.Apply(&lead)

		_, err = tx.NamedExecContext(ctx, `
			UPDATE leads SET
				status = :status,
				name = :name,
				email = :email,
				phone = :phone,
				tier = :tier,
				project_type = :project_type,
				estimated_value = :estimated_value
			WHERE id = :id
		`, &lead)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) RecordConversion(ctx context.Context, input entity.ConversionInput) (*entity.Conversion, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	conversion := entity.Conversion{
		LeadID:    input.LeadID,
		Outcome:   input.Outcome,
		Revenue:   input.Revenue,
		CloseDate: input.CloseDate,
		Notes:     input.Notes,
	}

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var leadID int64
		err := tx.QueryRowxContext(ctx, `SELECT id FROM leads WHERE id = $1 FOR UPDATE`, input.LeadID).Scan(&leadID)
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ErrLeadNotFound
		}
		if err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO conversions (lead_id, outcome, revenue, close_date, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, conversion.LeadID, conversion.Outcome, conversion.Revenue, conversion.CloseDate, conversion.Notes,
		).Scan(&conversion.ID, &conversion.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE leads SET status = $1 WHERE id = $2`,
			input.Outcome.Status(), input.LeadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &conversion, nil
}

func (r *LeadRepository) ListConversions(ctx context.Context, leadID int64) ([]entity.Conversion, error) {
	query := `SELECT id, lead_id, outcome, revenue, close_date, notes, created_at FROM conversions`
	var args []any
	if leadID != 0 {
		query += ` WHERE lead_id = $1`
		args = append(args, leadID)
	}
	query += ` ORDER BY id DESC`

	conversions := []entity.Conversion{}
	if err := r.DB.SelectContext(ctx, &conversions, query, args...); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return conversions, nil
}

// Snapshot reads both tables inside one repeatable-read transaction so a conversion
// committed between the two queries cannot show up in one and not the other.
func (r *LeadRepository) Snapshot(ctx context.Context) ([]entity.Lead, []entity.Conversion, error) {
	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	leads := []entity.Lead{}
	if err := tx.SelectContext(ctx, &leads, `SELECT `+leadColumns+` FROM leads ORDER BY id DESC`); err != nil {
		return nil, nil, fmt.Errorf("list leads: %w", err)
	}
	conversions := []entity.Conversion{}
	if err := tx.SelectContext(ctx, &conversions,
		`SELECT id, lead_id, outcome, revenue, close_date, notes, created_at FROM conversions ORDER BY id DESC`); err != nil {
		return nil, nil, fmt.Errorf("list conversions: %w", err)
	}
	return leads, conversions, nil
}

func (r *LeadRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
