package media

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	seq    int64
	assets map[string]memoryEntry
}

type memoryEntry struct {
	asset Asset
	seq   int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{assets: make(map[string]memoryEntry)}
}

func (r *MemoryRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	now := time.Now().UTC()
	asset.ID = uuid.NewString()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.assets[asset.ID] = memoryEntry{asset: asset, seq: r.seq}
	return asset, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.assets[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return entry.asset, nil
}

// List returns assets newest first, honoring limit/offset. A zero limit means no limit.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	entries := make([]memoryEntry, 0, len(r.assets))
	for _, e := range r.assets {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].asset.CreatedAt.Equal(entries[j].asset.CreatedAt) {
			return entries[i].asset.CreatedAt.After(entries[j].asset.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	if offset >= len(entries) {
		return []Asset{}, nil
	}
	end := len(entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Asset, 0, end-offset)
	for _, e := range entries[offset:end] {
		out = append(out, e.asset)
	}
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; !ok {
		return ErrNotFound
	}
	delete(r.assets, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
