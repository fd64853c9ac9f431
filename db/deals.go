// ABOUTME: SQL repository for deals and saved views
// ABOUTME: Implements the engine persistence contracts for SQLite and Postgres
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
)

var (
	_ engine.Repository     = (*Repository)(nil)
	_ engine.ViewRepository = (*Repository)(nil)
)

type Repository struct {
	db      *sql.DB
	dialect Dialect
}

func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

const dealColumns = `id, deal_number, name, account_id, contact_id, owner_id, pipeline_id, stage_id,
	amount, currency, probability, expected_close_date, actual_close_date, deal_type, lead_source,
	campaign_id, description, next_steps, notes, priority, health, tags, custom_fields, activities,
	emails, attachments, stage_history, created_by, created_at, updated_at, last_activity_at`

const upsertDeal = `
	INSERT INTO deals (` + dealColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		deal_number = excluded.deal_number,
		name = excluded.name,
		account_id = excluded.account_id,
		contact_id = excluded.contact_id,
		owner_id = excluded.owner_id,
		pipeline_id = excluded.pipeline_id,
		stage_id = excluded.stage_id,
		amount = excluded.amount,
		currency = excluded.currency,
		probability = excluded.probability,
		expected_close_date = excluded.expected_close_date,
		actual_close_date = excluded.actual_close_date,
		deal_type = excluded.deal_type,
		lead_source = excluded.lead_source,
		campaign_id = excluded.campaign_id,
		description = excluded.description,
		next_steps = excluded.next_steps,
		notes = excluded.notes,
		priority = excluded.priority,
		health = excluded.health,
		tags = excluded.tags,
		custom_fields = excluded.custom_fields,
		activities = excluded.activities,
		emails = excluded.emails,
		attachments = excluded.attachments,
		stage_history = excluded.stage_history,
		created_by = excluded.created_by,
		updated_at = excluded.updated_at,
		last_activity_at = excluded.last_activity_at
`

// LoadDeals returns every stored deal ordered by creation time.
func (r *Repository) LoadDeals(ctx context.Context) ([]models.Deal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+dealColumns+` FROM deals ORDER BY created_at, deal_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var deals []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// GetDeal loads a single deal.
func (r *Repository) GetDeal(ctx context.Context, id string) (models.Deal, error) {
	row := r.db.QueryRowContext(ctx, rebind(r.dialect, `SELECT `+dealColumns+` FROM deals WHERE id = ?`), id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deal{}, fmt.Errorf("%w: %s", engine.ErrUnknownDeal, id)
	}
	return d, err
}

func (r *Repository) SaveDeal(ctx context.Context, d models.Deal) error {
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return err
	}
	history, err := json.Marshal(d.StageHistory)
	if err != nil {
		return err
	}
	custom, err := marshalOptional(d.CustomFields, len(d.CustomFields) == 0)
	if err != nil {
		return err
	}
	activities, err := marshalOptional(d.Activities, len(d.Activities) == 0)
	if err != nil {
		return err
	}
	emails, err := marshalOptional(d.Emails, len(d.Emails) == 0)
	if err != nil {
		return err
	}
	attachments, err := marshalOptional(d.Attachments, len(d.Attachments) == 0)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, rebind(r.dialect, upsertDeal),
		d.ID, d.DealNumber, d.Name, nullString(d.AccountID), nullString(d.ContactID), d.OwnerID,
		d.PipelineID, d.StageID, d.Amount, d.Currency, d.Probability,
		nullTime(d.ExpectedCloseDate), nullTime(d.ActualCloseDate), d.DealType, nullString(d.LeadSource),
		nullString(d.CampaignID), nullString(d.Description), nullString(d.NextSteps), nullString(d.Notes),
		d.Priority, d.Health, string(tags), custom, activities, emails, attachments, string(history),
		nullString(d.CreatedBy), d.CreatedAt.UTC(), d.UpdatedAt.UTC(), nullTime(d.LastActivityAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save deal %s: %w", d.ID, err)
	}
	return nil
}

// DeleteDeal is idempotent: deleting a missing deal succeeds.
func (r *Repository) DeleteDeal(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, rebind(r.dialect, `DELETE FROM deals WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (models.Deal, error) {
	var (
		d                                            models.Deal
		accountID, contactID, leadSource, campaignID sql.NullString
		description, nextSteps, notes, createdBy     sql.NullString
		tags, history                                string
		custom, activities, emails, attachments      sql.NullString
		expectedClose, actualClose, lastActivity     sql.NullTime
	)

	err := s.Scan(
		&d.ID, &d.DealNumber, &d.Name, &accountID, &contactID, &d.OwnerID, &d.PipelineID, &d.StageID,
		&d.Amount, &d.Currency, &d.Probability, &expectedClose, &actualClose, &d.DealType, &leadSource,
		&campaignID, &description, &nextSteps, &notes, &d.Priority, &d.Health, &tags, &custom, &activities,
		&emails, &attachments, &history, &createdBy, &d.CreatedAt, &d.UpdatedAt, &lastActivity,
	)
	if err != nil {
		return models.Deal{}, err
	}

	d.AccountID = accountID.String
	d.ContactID = contactID.String
	d.LeadSource = leadSource.String
	d.CampaignID = campaignID.String
	d.Description = description.String
	d.NextSteps = nextSteps.String
	d.Notes = notes.String
	d.CreatedBy = createdBy.String
	d.ExpectedCloseDate = timePtr(expectedClose)
	d.ActualCloseDate = timePtr(actualClose)
	d.LastActivityAt = timePtr(lastActivity)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()

	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return models.Deal{}, fmt.Errorf("deal %s tags: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &d.StageHistory); err != nil {
		return models.Deal{}, fmt.Errorf("deal %s stage history: %w", d.ID, err)
	}
	for _, col := range []struct {
		name string
		raw  sql.NullString
		dst  any
	}{
		{"custom_fields", custom, &d.CustomFields},
		{"activities", activities, &d.Activities},
		{"emails", emails, &d.Emails},
		{"attachments", attachments, &d.Attachments},
	} {
		if !col.raw.Valid || col.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw.String), col.dst); err != nil {
			return models.Deal{}, fmt.Errorf("deal %s %s: %w", d.ID, col.name, err)
		}
	}
	return d, nil
}

func marshalOptional(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
