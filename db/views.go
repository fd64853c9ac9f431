// ABOUTME: Saved view persistence in the saved_views table
// ABOUTME: View state is stored as its flat key-value encoding in JSON
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

func (r *Repository) SaveView(ctx context.Context, v models.ViewState) error {
	state, err := json.Marshal(v.Encode())
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, rebind(r.dialect, `
		INSERT INTO saved_views (name, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`), v.Name, string(state), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save view %s: %w", v.Name, err)
	}
	return nil
}

func (r *Repository) GetView(ctx context.Context, name string) (models.ViewState, error) {
	var state string
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, `SELECT state FROM saved_views WHERE name = ?`), name).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ViewState{}, fmt.Errorf("%w: %s", engine.ErrViewNotFound, name)
	}
	if err != nil {
		return models.ViewState{}, err
	}
	return decodeView(state)
}

func (r *Repository) ListViews(ctx context.Context) ([]models.ViewState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state FROM saved_views ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []models.ViewState
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			return nil, err
		}
		v, err := decodeView(state)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *Repository) DeleteView(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, rebind(r.dialect, `DELETE FROM saved_views WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("failed to delete view %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", engine.ErrViewNotFound, name)
	}
	return nil
}

func decodeView(state string) (models.ViewState, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(state), &m); err != nil {
		return models.ViewState{}, fmt.Errorf("corrupt saved view: %w", err)
	}
	return models.DecodeViewState(m)
}
