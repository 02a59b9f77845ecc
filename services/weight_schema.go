package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jewelstock/keys"
	"jewelstock/models"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrInvalidWeightMode = errors.New("invalid weight mode")

// WeightModePersistence persists the write-once schema decision per
// (category, item).
type WeightModePersistence interface {
	LoadModes(ctx context.Context) ([]models.WeightMode, error)
	SaveMode(ctx context.Context, categoryKey, itemKey, mode string) error
}

// WeightSchema resolves which weight columns apply to a sub-item. An
// item is either "shared" (every sub-item shows the same columns, taken
// from the first sub-item that has any) or "perSubItem" (each sub-item
// defines its own). The mode locks on first set: changing it later
// would orphan quantity data already keyed by the old schema, so the
// setter refuses instead of migrating.
type WeightSchema struct {
	store *ThresholdStore
	repo  WeightModePersistence
	log   *zap.Logger

	mu    sync.Mutex
	modes map[string]string
}

func NewWeightSchema(store *ThresholdStore, repo WeightModePersistence, log *zap.Logger) *WeightSchema {
	return &WeightSchema{store: store, repo: repo, log: log, modes: map[string]string{}}
}

func (w *WeightSchema) Load(ctx context.Context) error {
	rows, err := w.repo.LoadModes(ctx)
	if err != nil {
		w.log.Warn("weight mode load failed", zap.Error(err))
		return err
	}
	modes := make(map[string]string, len(rows))
	for _, m := range rows {
		modes[modeKey(m.CategoryKey, m.ItemKey)] = m.Mode
	}
	w.mu.Lock()
	w.modes = modes
	w.mu.Unlock()
	return nil
}

// Mode returns the stored mode for an item, ok false when undecided.
func (w *WeightSchema) Mode(category, item string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.modes[modeKey(keys.Encode(category), keys.Encode(item))]
	return m, ok
}

// SetMode sets the schema mode exactly once. The boolean reports
// whether the call took effect; false with a nil error means the mode
// was already locked.
func (w *WeightSchema) SetMode(ctx context.Context, category, item, mode string) (bool, error) {
	if !models.ValidWeightMode(mode) {
		return false, fmt.Errorf("%w %q", ErrInvalidWeightMode, mode)
	}
	cat := keys.Encode(category)
	it := keys.Encode(item)
	key := modeKey(cat, it)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, locked := w.modes[key]; locked {
		return false, nil
	}
	if err := w.repo.SaveMode(ctx, cat, it, mode); err != nil {
		w.log.Warn("weight mode save failed",
			zap.String("category", cat), zap.String("item", it), zap.Error(err))
		return false, err
	}
	w.modes[key] = mode
	return true, nil
}

// WeightsFor resolves the effective weight columns of a sub-item:
//  1. the sub-item's own non-reserved weights, when it has any;
//  2. in shared mode, the first sibling sub-item (in stored order) with
//     a non-empty weight set donates its schema;
//  3. otherwise empty.
//
// The donor scan never mutates state; propagation is resolved on read.
func (w *WeightSchema) WeightsFor(category, item, subItem string) []string {
	subs := w.store.ItemSnapshot(category, item)
	if subs == nil {
		return nil
	}
	sub := keys.Encode(subItem)

	if own := weightColumns(subs[sub]); len(own) > 0 {
		return own
	}

	mode, ok := w.Mode(category, item)
	if !ok || mode != models.WeightModeShared {
		return nil
	}

	for _, sibling := range sortedKeys(subs) {
		if sibling == sub || keys.IsReserved(sibling) {
			continue
		}
		if ws := weightColumns(subs[sibling]); len(ws) > 0 {
			return ws
		}
	}
	return nil
}

// weightColumns filters reserved metadata keys out of a weight map and
// returns the rest in stable order.
func weightColumns(weights map[string]int) []string {
	if len(weights) == 0 {
		return nil
	}
	out := make([]string, 0, len(weights))
	for _, k := range sortedKeys(weights) {
		if keys.IsReserved(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	ks := maps.Keys(m)
	slices.Sort(ks)
	return ks
}

func modeKey(categoryKey, itemKey string) string {
	return categoryKey + "/" + itemKey
}
