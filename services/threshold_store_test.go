package services

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*ThresholdStore, *fakeThresholdRepo) {
	t.Helper()
	repo := newFakeThresholdRepo()
	return NewThresholdStore(repo, zap.NewNop()), repo
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "S1", "2g", 10); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, ok := store.Get("Rings", "Band", "S1", "2g")
	if !ok || v != 10 {
		t.Errorf("Get = (%d, %v), want (10, true)", v, ok)
	}

	// Write-through happened.
	payload, ok := repo.payloads["Rings"]
	if !ok {
		t.Fatal("category document was not persisted")
	}
	var decoded map[string]map[string]map[string]int
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("persisted payload not valid JSON: %v", err)
	}
	if decoded["Band"]["S1"]["2g"] != 10 {
		t.Errorf("persisted payload = %s", payload)
	}
}

func TestSetEncodesKeys(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "", "2.5g", 4); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Empty sub-item lands under the default token, unsafe characters
	// are replaced everywhere.
	if v, ok := store.Get("Rings", "Band", "", "2.5g"); !ok || v != 4 {
		t.Errorf("Get via raw labels = (%d, %v), want (4, true)", v, ok)
	}
	if v, ok := store.Get("Rings", "Band", "default", "2_5g"); !ok || v != 4 {
		t.Errorf("Get via encoded labels = (%d, %v), want (4, true)", v, ok)
	}
	payload := repo.payloads["Rings"]
	var decoded map[string]map[string]map[string]int
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if decoded["Band"]["default"]["2_5g"] != 4 {
		t.Errorf("keys not encoded in payload: %s", payload)
	}
}

func TestGetWeightNormalization(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "S1", "2_5g", 7); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Secondary lookup by the space variant.
	if v, ok := store.Get("Rings", "Band", "S1", "2 5g"); !ok || v != 7 {
		t.Errorf("space-variant lookup = (%d, %v), want (7, true)", v, ok)
	}
}

func TestGetNoCrossSubItemFallback(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "S1", "2g", 10); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := store.Get("Rings", "Band", "S2", "2g"); ok {
		t.Error("exact-match lookup must not fall back to sibling sub-items")
	}
}

func TestNegativeThresholdRejected(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "S1", "2g", -1); err != ErrNegativeThreshold {
		t.Fatalf("expected ErrNegativeThreshold, got %v", err)
	}
	if len(repo.payloads) != 0 {
		t.Error("rejected write must be a no-op")
	}
}

func TestRemoveCascade(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	if err := store.Set(ctx, "Rings", "Band", "S1", "2g", 10); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "Rings", "Band", "S1", "4g", 5); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "Rings", "Chain", "S9", "2g", 3); err != nil {
		t.Fatal(err)
	}

	// Removing one of two weights keeps the sub-item.
	if err := store.Remove(ctx, "Rings", "Band", "S1", "2g"); err != nil {
		t.Fatal(err)
	}
	if subs := store.ItemSnapshot("Rings", "Band"); subs["S1"] == nil {
		t.Fatal("sub-item removed too early")
	}

	// Removing the last weight removes the sub-item and then the item.
	if err := store.Remove(ctx, "Rings", "Band", "S1", "4g"); err != nil {
		t.Fatal(err)
	}
	if subs := store.ItemSnapshot("Rings", "Band"); subs != nil {
		t.Errorf("expected Band gone, got %v", subs)
	}
	if store.ItemSnapshot("Rings", "Chain") == nil {
		t.Error("unrelated item must survive")
	}

	// Emptying the whole category deletes the document instead of
	// saving an empty payload.
	if err := store.Remove(ctx, "Rings", "Chain", "S9", "2g"); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.payloads["Rings"]; ok {
		t.Error("empty category document should be deleted, not saved")
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "Rings" {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)
	if err := store.Remove(ctx, "Rings", "Band", "S1", "2g"); err != nil {
		t.Fatalf("Remove on missing leaf: %v", err)
	}
	if len(repo.deleted) != 0 || len(repo.payloads) != 0 {
		t.Error("no-op remove must not touch persistence")
	}
}

func TestLoadCanonicalShape(t *testing.T) {
	ctx := context.Background()
	repo := newFakeThresholdRepo()
	repo.payloads["Rings"] = `{"Band":{"S1":{"2g":10,"4g":5}}}`
	store := NewThresholdStore(repo, zap.NewNop())

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, ok := store.Get("Rings", "Band", "S1", "2g"); !ok || v != 10 {
		t.Errorf("Get = (%d, %v), want (10, true)", v, ok)
	}
}

func TestLoadMigratesLegacyFlatShape(t *testing.T) {
	ctx := context.Background()
	repo := newFakeThresholdRepo()
	// Old clients wrote item -> weight -> value with no sub-item level.
	repo.payloads["Rings"] = `{"Band":{"2g":10,"4g":5}}`
	store := NewThresholdStore(repo, zap.NewNop())

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, ok := store.Get("Rings", "Band", "", "2g"); !ok || v != 10 {
		t.Errorf("legacy value not visible under default sub-item: (%d, %v)", v, ok)
	}
	if v, ok := store.Get("Rings", "Band", "default", "4g"); !ok || v != 5 {
		t.Errorf("legacy value not visible under default token: (%d, %v)", v, ok)
	}
}

func TestLoadMixedAndJunkEntries(t *testing.T) {
	ctx := context.Background()
	repo := newFakeThresholdRepo()
	repo.payloads["Rings"] = `{"Band":{"S1":{"2g":10},"4g":5,"junk":"x"},"broken":3}`
	store := NewThresholdStore(repo, zap.NewNop())

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, ok := store.Get("Rings", "Band", "S1", "2g"); !ok || v != 10 {
		t.Errorf("canonical entry lost: (%d, %v)", v, ok)
	}
	if v, ok := store.Get("Rings", "Band", "", "4g"); !ok || v != 5 {
		t.Errorf("legacy entry in mixed map lost: (%d, %v)", v, ok)
	}
	if _, ok := store.Get("Rings", "Band", "junk", ""); ok {
		t.Error("junk string entry must be dropped")
	}
}

func TestLoadDropsNegativeAndFractionalValues(t *testing.T) {
	ctx := context.Background()
	repo := newFakeThresholdRepo()
	repo.payloads["Rings"] = `{"Band":{"S1":{"2g":-3,"4g":2.5,"6g":7},"8g":-1}}`
	store := NewThresholdStore(repo, zap.NewNop())

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := store.Get("Rings", "Band", "S1", "2g"); ok {
		t.Error("negative legacy value must be dropped")
	}
	if _, ok := store.Get("Rings", "Band", "S1", "4g"); ok {
		t.Error("fractional legacy value must be dropped")
	}
	if _, ok := store.Get("Rings", "Band", "", "8g"); ok {
		t.Error("negative flat-shape value must be dropped")
	}
	if v, ok := store.Get("Rings", "Band", "S1", "6g"); !ok || v != 7 {
		t.Errorf("valid sibling lost: (%d, %v)", v, ok)
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)
	repo.saveErr = errTest

	err := store.Set(ctx, "Rings", "Band", "S1", "2g", 10)
	if err == nil {
		t.Fatal("expected save error to surface")
	}
	// The edit stays visible; persistence is best effort.
	if v, ok := store.Get("Rings", "Band", "S1", "2g"); !ok || v != 10 {
		t.Errorf("in-memory state lost on save failure: (%d, %v)", v, ok)
	}
}
