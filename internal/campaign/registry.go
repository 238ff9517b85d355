package campaign

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownCampaign = errors.New("unknown campaign")

// Registry maps campaign ids to the name of the database holding their
// contacts. It is fixed at startup and safe for concurrent reads.
type Registry struct {
	stores map[string]string
}

func NewRegistry(stores map[string]string) (*Registry, error) {
	if len(stores) == 0 {
		return nil, errors.New("campaign registry is empty")
	}
	r := &Registry{stores: make(map[string]string, len(stores))}
	for id, store := range stores {
		if id == "" {
			return nil, errors.New("campaign id is empty")
		}
		if store == "" {
			return nil, fmt.Errorf("campaign %q has no store name", id)
		}
		r.stores[id] = store
	}
	return r, nil
}

func (r *Registry) Resolve(campaignID string) (string, error) {
	store, ok := r.stores[campaignID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCampaign, campaignID)
	}
	return store, nil
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
