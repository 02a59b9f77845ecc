package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"jewelstock/keys"

	"go.uber.org/zap"
)

var ErrNegativeThreshold = errors.New("threshold must not be negative")

// ThresholdPersistence is the full-document persistence boundary: one
// payload per category, loaded and saved whole.
type ThresholdPersistence interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	SaveCategory(ctx context.Context, categoryKey, payload string) error
	DeleteCategory(ctx context.Context, categoryKey string) error
}

// ThresholdTree is the canonical in-memory shape:
// category -> item -> subItem -> weight -> minimum quantity.
type ThresholdTree map[string]map[string]map[string]map[string]int

// ThresholdStore owns the threshold configuration. All keys inside the
// tree are encoded; raw labels are encoded on the way in. Edits are
// written through per category on every change. A failed save keeps the
// in-memory edit and returns the error so the HTTP layer can surface a
// warning without rolling the table state back under the user.
type ThresholdStore struct {
	mu   sync.RWMutex
	tree ThresholdTree
	repo ThresholdPersistence
	log  *zap.Logger
}

func NewThresholdStore(repo ThresholdPersistence, log *zap.Logger) *ThresholdStore {
	return &ThresholdStore{tree: ThresholdTree{}, repo: repo, log: log}
}

// Load replaces the in-memory tree with the persisted documents.
// Payloads in the legacy flat shape (item -> weight -> value, no
// sub-item level) are migrated on read; the rest of the system only
// ever sees the canonical shape.
func (s *ThresholdStore) Load(ctx context.Context) error {
	payloads, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.log.Warn("threshold load failed, starting empty", zap.Error(err))
		return err
	}

	tree := ThresholdTree{}
	for catKey, payload := range payloads {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			s.log.Warn("dropping unreadable threshold payload",
				zap.String("category", catKey), zap.Error(err))
			continue
		}
		cat := s.sanitizeCategory(catKey, raw)
		if len(cat) > 0 {
			tree[keys.Encode(catKey)] = cat
		}
	}

	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
	return nil
}

// sanitizeCategory normalizes one decoded payload into the canonical
// nested map. A map value at the sub-item position is canonical; a
// number there means the legacy flat shape, which lands under the
// default sub-item. Anything else is junk and gets dropped with a log
// line.
func (s *ThresholdStore) sanitizeCategory(catKey string, raw map[string]interface{}) map[string]map[string]map[string]int {
	cat := map[string]map[string]map[string]int{}
	for itemKey, itemVal := range raw {
		itemMap, ok := itemVal.(map[string]interface{})
		if !ok {
			s.log.Warn("dropping junk threshold item entry",
				zap.String("category", catKey), zap.String("item", itemKey))
			continue
		}
		item := keys.Encode(itemKey)
		for subKey, subVal := range itemMap {
			switch sv := subVal.(type) {
			case map[string]interface{}:
				for weightKey, wv := range sv {
					n, ok := asInt(wv)
					if !ok {
						s.log.Warn("dropping junk threshold leaf",
							zap.String("category", catKey),
							zap.String("item", itemKey),
							zap.String("weight", weightKey))
						continue
					}
					setLeaf(cat, item, keys.Encode(subKey), keys.Encode(weightKey), n)
				}
			case float64:
				// Legacy flat shape: subKey is actually a weight.
				n, ok := asInt(sv)
				if !ok {
					s.log.Warn("dropping junk threshold leaf",
						zap.String("category", catKey),
						zap.String("item", itemKey),
						zap.String("weight", subKey))
					continue
				}
				setLeaf(cat, item, keys.DefaultToken, keys.Encode(subKey), n)
			default:
				s.log.Warn("dropping junk threshold sub-item entry",
					zap.String("category", catKey),
					zap.String("item", itemKey),
					zap.String("subItem", subKey))
			}
		}
	}
	return cat
}

// Set inserts or overwrites one threshold, creating intermediate levels
// as needed, and writes the category document through.
func (s *ThresholdStore) Set(ctx context.Context, category, item, subItem, weight string, value int) error {
	if value < 0 {
		return ErrNegativeThreshold
	}
	cat := keys.Encode(category)
	it := keys.Encode(item)
	sub := keys.Encode(subItem)
	w := keys.Encode(weight)

	s.mu.Lock()
	if s.tree[cat] == nil {
		s.tree[cat] = map[string]map[string]map[string]int{}
	}
	setLeaf(s.tree[cat], it, sub, w, value)
	payload := s.marshalCategoryLocked(cat)
	s.mu.Unlock()

	return s.persistCategory(ctx, cat, payload)
}

// Remove deletes the leaf and cascades removal of now-empty parents.
// Removing a missing leaf is a no-op.
func (s *ThresholdStore) Remove(ctx context.Context, category, item, subItem, weight string) error {
	cat := keys.Encode(category)
	it := keys.Encode(item)
	sub := keys.Encode(subItem)
	w := keys.Encode(weight)

	s.mu.Lock()
	items := s.tree[cat]
	subs := items[it]
	weights := subs[sub]
	if _, ok := weights[w]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(weights, w)
	if len(weights) == 0 {
		delete(subs, sub)
	}
	if len(subs) == 0 {
		delete(items, it)
	}
	if len(items) == 0 {
		delete(s.tree, cat)
	}
	payload := s.marshalCategoryLocked(cat)
	s.mu.Unlock()

	if payload == "" {
		if err := s.repo.DeleteCategory(ctx, cat); err != nil {
			s.log.Warn("threshold delete failed", zap.String("category", cat), zap.Error(err))
			return err
		}
		return nil
	}
	return s.persistCategory(ctx, cat, payload)
}

// Get is the exact-match threshold lookup. The weight is tried as
// stored plus its space/underscore variants; absent means unconfigured,
// there is no global default and no cross-sub-item fallback here.
func (s *ThresholdStore) Get(category, item, subItem, weight string) (int, bool) {
	cat := keys.Encode(category)
	it := keys.Encode(item)
	sub := keys.Encode(subItem)

	s.mu.RLock()
	defer s.mu.RUnlock()

	weights := s.tree[cat][it][sub]
	if weights == nil {
		return 0, false
	}
	for _, variant := range keys.WeightVariants(weight) {
		if v, ok := weights[variant]; ok {
			return v, true
		}
	}
	return 0, false
}

// Snapshot returns a deep copy of the whole tree.
func (s *ThresholdStore) Snapshot() ThresholdTree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(ThresholdTree, len(s.tree))
	for cat, items := range s.tree {
		out[cat] = copyCategory(items)
	}
	return out
}

// ItemSnapshot returns a deep copy of one item subtree
// (subItem -> weight -> value), nil when the item has no entries.
func (s *ThresholdStore) ItemSnapshot(category, item string) map[string]map[string]int {
	cat := keys.Encode(category)
	it := keys.Encode(item)

	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.tree[cat][it]
	if subs == nil {
		return nil
	}
	out := make(map[string]map[string]int, len(subs))
	for sub, weights := range subs {
		w := make(map[string]int, len(weights))
		for k, v := range weights {
			w[k] = v
		}
		out[sub] = w
	}
	return out
}

func (s *ThresholdStore) persistCategory(ctx context.Context, categoryKey, payload string) error {
	if payload == "" {
		// Structural guard: never ship an empty document.
		s.log.Warn("skipping empty threshold save", zap.String("category", categoryKey))
		return nil
	}
	if err := s.repo.SaveCategory(ctx, categoryKey, payload); err != nil {
		s.log.Warn("threshold save failed", zap.String("category", categoryKey), zap.Error(err))
		return err
	}
	return nil
}

// marshalCategoryLocked serializes one category subtree. Caller holds
// the lock. Returns "" for an empty or missing category.
func (s *ThresholdStore) marshalCategoryLocked(categoryKey string) string {
	items := s.tree[categoryKey]
	if len(items) == 0 {
		return ""
	}
	b, err := json.Marshal(items)
	if err != nil {
		s.log.Error("threshold marshal failed", zap.String("category", categoryKey), zap.Error(err))
		return ""
	}
	return string(b)
}

func setLeaf(cat map[string]map[string]map[string]int, item, sub, weight string, value int) {
	if cat[item] == nil {
		cat[item] = map[string]map[string]int{}
	}
	if cat[item][sub] == nil {
		cat[item][sub] = map[string]int{}
	}
	cat[item][sub][weight] = value
}

func copyCategory(items map[string]map[string]map[string]int) map[string]map[string]map[string]int {
	out := make(map[string]map[string]map[string]int, len(items))
	for item, subs := range items {
		out[item] = make(map[string]map[string]int, len(subs))
		for sub, weights := range subs {
			w := make(map[string]int, len(weights))
			for k, v := range weights {
				w[k] = v
			}
			out[item][sub] = w
		}
	}
	return out
}

// asInt accepts only the values Set would have written: non-negative
// whole numbers. Negative and fractional legacy values are junk.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
