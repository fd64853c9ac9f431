// ABOUTME: Deal and saved view repository on top of Charm KV
// ABOUTME: Stores JSON documents under deal:<id> and view:<name> keys

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
)

const (
	dealPrefix = "deal:"
	viewPrefix = "view:"
)

var (
	_ engine.Repository     = (*KVRepository)(nil)
	_ engine.ViewRepository = (*KVRepository)(nil)
)

type KVRepository struct {
	client *Client
}

func NewKVRepository(c *Client) *KVRepository {
	return &KVRepository{client: c}
}

func dealKey(id string) []byte   { return []byte(dealPrefix + id) }
func viewKey(name string) []byte { return []byte(viewPrefix + name) }

// LoadDeals returns all deals ordered by creation time.
func (r *KVRepository) LoadDeals(ctx context.Context) ([]models.Deal, error) {
	keys, err := r.client.KeysWithPrefix([]byte(dealPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	deals := make([]models.Deal, 0, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := r.client.Get(k)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		var d models.Deal
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", k, err)
		}
		deals = append(deals, d)
	}

	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].DealNumber < deals[j].DealNumber
		}
		return deals[i].CreatedAt.Before(deals[j].CreatedAt)
	})
	return deals, nil
}

func (r *KVRepository) SaveDeal(ctx context.Context, d models.Deal) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode deal %s: %w", d.ID, err)
	}
	return r.client.Set(dealKey(d.ID), raw)
}

// DeleteDeal is idempotent.
func (r *KVRepository) DeleteDeal(ctx context.Context, id string) error {
	return r.client.Delete(dealKey(id))
}

func (r *KVRepository) SaveView(ctx context.Context, v models.ViewState) error {
	raw, err := json.Marshal(v.Encode())
	if err != nil {
		return err
	}
	return r.client.Set(viewKey(v.Name), raw)
}

func (r *KVRepository) GetView(ctx context.Context, name string) (models.ViewState, error) {
	raw, err := r.client.Get(viewKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.ViewState{}, fmt.Errorf("%w: %s", engine.ErrViewNotFound, name)
	}
	if err != nil {
		return models.ViewState{}, err
	}
	return decodeView(raw)
}

func (r *KVRepository) ListViews(ctx context.Context) ([]models.ViewState, error) {
	keys, err := r.client.KeysWithPrefix([]byte(viewPrefix))
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })

	views := make([]models.ViewState, 0, len(keys))
	for _, k := range keys {
		raw, err := r.client.Get(k)
		if err != nil {
			return nil, err
		}
		v, err := decodeView(raw)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *KVRepository) DeleteView(ctx context.Context, name string) error {
	if _, err := r.client.Get(viewKey(name)); errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", engine.ErrViewNotFound, name)
	}
	return r.client.Delete(viewKey(name))
}

func decodeView(raw []byte) (models.ViewState, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.ViewState{}, fmt.Errorf("corrupt saved view: %w", err)
	}
	return models.DecodeViewState(m)
}
