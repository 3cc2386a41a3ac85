package engine

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/metadata"
	"pos-backend/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(s.Close)

	reg := metadata.NewRegistry(metadata.Catalog())
	if err := store.NewMigrator(s).MigrateAll(ctx, reg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(s, reg)
}

func createItem(t *testing.T, svc *Service, owner, name string, price float64) map[string]any {
	t.Helper()
	record, err := svc.Create(context.Background(), "items", map[string]any{
		"organization_id": float64(1),
		"name":            name,
		"item_type":       "beverage",
		"base_price":      price,
	}, owner)
	if err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return record
}

func itemID(t *testing.T, record map[string]any) int64 {
	t.Helper()
	id, ok := record["id"].(int64)
	if !ok {
		t.Fatalf("id has type %T", record["id"])
	}
	return id
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	svc := testService(t)

	record := createItem(t, svc, "alice", "Latte", 4.5)

	if itemID(t, record) < 1 {
		t.Fatalf("id = %v", record["id"])
	}
	if record["name"] != "Latte" {
		t.Fatalf("name = %v", record["name"])
	}
	if record["base_price"] != 4.5 {
		t.Fatalf("base_price = %v", record["base_price"])
	}
	// Server-side defaults appear in the returned record.
	if record["is_active"] != true {
		t.Fatalf("is_active default = %v (%T)", record["is_active"], record["is_active"])
	}
	if record["track_inventory"] != false {
		t.Fatalf("track_inventory default = %v", record["track_inventory"])
	}
	// The caller identity is stamped in, never taken from the payload.
	if record["user_id"] != "alice" {
		t.Fatalf("user_id = %v", record["user_id"])
	}
}

func TestCreate_UnknownEntity(t *testing.T) {
	svc := testService(t)
	_, err := svc.Create(context.Background(), "customers", map[string]any{}, "alice")
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "UNKNOWN_ENTITY" {
		t.Fatalf("err = %v", err)
	}
}

func TestCreate_RejectsUnknownFieldAndID(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "items", map[string]any{"color": "red"}, "alice")
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_FIELD" {
		t.Fatalf("unknown field err = %v", err)
	}

	_, err = svc.Create(ctx, "items", map[string]any{
		"id":              float64(99),
		"organization_id": float64(1),
		"name":            "Latte",
		"item_type":       "beverage",
		"base_price":      4.5,
	}, "alice")
	if !errors.As(err, &appErr) || appErr.Status != 400 {
		t.Fatalf("client-sent id err = %v", err)
	}
}

func TestCreate_OwnerOverridesPayload(t *testing.T) {
	svc := testService(t)
	record, err := svc.Create(context.Background(), "items", map[string]any{
		"user_id":         "mallory",
		"organization_id": float64(1),
		"name":            "Mocha",
		"item_type":       "beverage",
		"base_price":      5.0,
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record["user_id"] != "alice" {
		t.Fatalf("user_id = %v, payload must not set ownership", record["user_id"])
	}
}

func TestGetByID_CrossOwnerIsNotFound(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	if _, err := svc.GetByID(ctx, "items", id, "alice"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	// Another caller sees nothing, not a permission error.
	_, err := svc.GetByID(ctx, "items", id, "bob")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner read err = %v", err)
	}
	// Unscoped reads see everything.
	if _, err := svc.GetByID(ctx, "items", id, ""); err != nil {
		t.Fatalf("unscoped read: %v", err)
	}
}

func TestList_OwnerScopingAndTotal(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for _, name := range []string{"Latte", "Mocha", "Espresso"} {
		createItem(t, svc, "alice", name, 4.0)
	}
	createItem(t, svc, "bob", "Tea", 3.0)

	result, err := svc.List(ctx, "items", ListOptions{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 3 || len(result.Records) != 3 {
		t.Fatalf("total = %d, records = %d", result.Total, len(result.Records))
	}
	for _, r := range result.Records {
		if r["user_id"] != "alice" {
			t.Fatalf("foreign record leaked: %v", r)
		}
	}

	// Unscoped listing sees all owners.
	all, err := svc.List(ctx, "items", ListOptions{})
	if err != nil {
		t.Fatalf("unscoped list: %v", err)
	}
	if all.Total != 4 {
		t.Fatalf("unscoped total = %d", all.Total)
	}
}

func TestList_PaginationIsDisjoint(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		createItem(t, svc, "alice", name, 1.0)
	}

	seen := make(map[int64]bool)
	var prev int64 = 1 << 62
	for skip := 0; skip < 6; skip += 2 {
		page, err := svc.List(ctx, "items", ListOptions{OwnerID: "alice", Skip: skip, Limit: 2})
		if err != nil {
			t.Fatalf("page skip=%d: %v", skip, err)
		}
		if page.Total != 5 {
			t.Fatalf("total = %d", page.Total)
		}
		for _, r := range page.Records {
			id := itemID(t, r)
			if seen[id] {
				t.Fatalf("id %d appeared on two pages", id)
			}
			seen[id] = true
			// Default ordering is id descending.
			if id >= prev {
				t.Fatalf("ordering violated: %d after %d", id, prev)
			}
			prev = id
		}
	}
	if len(seen) != 5 {
		t.Fatalf("pages covered %d of 5 records", len(seen))
	}
}

func TestList_LimitClamping(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	createItem(t, svc, "alice", "Latte", 4.5)

	result, err := svc.List(ctx, "items", ListOptions{OwnerID: "alice", Limit: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Limit != DefaultLimit {
		t.Fatalf("limit = %d, want default %d", result.Limit, DefaultLimit)
	}

	result, err = svc.List(ctx, "items", ListOptions{OwnerID: "alice", Limit: 100000, Skip: -5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Limit != MaxLimit || result.Skip != 0 {
		t.Fatalf("limit = %d skip = %d", result.Limit, result.Skip)
	}
}

func TestList_FiltersAndSort(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	createItem(t, svc, "alice", "Latte", 4.5)
	createItem(t, svc, "alice", "Mocha", 5.0)

	result, err := svc.List(ctx, "items", ListOptions{
		OwnerID: "alice",
		Filters: map[string]any{"name": "Latte"},
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if result.Total != 1 || result.Records[0]["name"] != "Latte" {
		t.Fatalf("filter result = %+v", result)
	}

	// Unknown filter keys are rejected.
	_, err = svc.List(ctx, "items", ListOptions{
		OwnerID: "alice",
		Filters: map[string]any{"flavor": "vanilla"},
	})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_FIELD" {
		t.Fatalf("unknown filter err = %v", err)
	}

	// Unknown sort fields are ignored; the default id DESC ordering applies.
	result, err = svc.List(ctx, "items", ListOptions{OwnerID: "alice", Sort: "popularity"})
	if err != nil {
		t.Fatalf("list with unknown sort: %v", err)
	}
	if len(result.Records) != 2 || itemID(t, result.Records[0]) < itemID(t, result.Records[1]) {
		t.Fatalf("unknown sort did not fall back to id DESC")
	}

	// Valid ascending sort.
	result, err = svc.List(ctx, "items", ListOptions{OwnerID: "alice", Sort: "base_price"})
	if err != nil {
		t.Fatalf("sorted list: %v", err)
	}
	if result.Records[0]["name"] != "Latte" {
		t.Fatalf("ascending price sort got %v first", result.Records[0]["name"])
	}
}

func TestList_EmptyPageIsEmptySlice(t *testing.T) {
	svc := testService(t)
	result, err := svc.List(context.Background(), "items", ListOptions{OwnerID: "nobody"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Records == nil {
		t.Fatal("records must be an empty slice, not nil")
	}
	if result.Total != 0 {
		t.Fatalf("total = %d", result.Total)
	}
}

func TestUpdate_PartialPatchSemantics(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	// Set a value, then patch an unrelated field; the value survives.
	if _, err := svc.Update(ctx, "items", id, map[string]any{"description": "espresso with milk"}, "alice"); err != nil {
		t.Fatalf("first patch: %v", err)
	}
	record, err := svc.Update(ctx, "items", id, map[string]any{"base_price": 5.0}, "alice")
	if err != nil {
		t.Fatalf("second patch: %v", err)
	}
	if record["description"] != "espresso with milk" {
		t.Fatalf("untouched field changed: %v", record["description"])
	}
	if record["base_price"] != 5.0 {
		t.Fatalf("base_price = %v", record["base_price"])
	}

	// Applying the identical patch again yields the same final state.
	again, err := svc.Update(ctx, "items", id, map[string]any{"base_price": 5.0}, "alice")
	if err != nil {
		t.Fatalf("repeat patch: %v", err)
	}
	for _, key := range []string{"id", "name", "description", "base_price", "user_id"} {
		if again[key] != record[key] {
			t.Fatalf("%s changed on repeat patch: %v -> %v", key, record[key], again[key])
		}
	}

	// An explicit null is applied, not ignored.
	record, err = svc.Update(ctx, "items", id, map[string]any{"description": nil}, "alice")
	if err != nil {
		t.Fatalf("null patch: %v", err)
	}
	if record["description"] != nil {
		t.Fatalf("explicit null not applied: %v", record["description"])
	}
}

func TestUpdate_SkipsImmutableAndUnknownKeys(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	record, err := svc.Update(ctx, "items", id, map[string]any{
		"id":      float64(999),
		"user_id": "mallory",
		"bogus":   "ignored",
		"name":    "Flat White",
	}, "alice")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if itemID(t, record) != id {
		t.Fatalf("id changed to %v", record["id"])
	}
	if record["user_id"] != "alice" {
		t.Fatalf("ownership changed to %v", record["user_id"])
	}
	if record["name"] != "Flat White" {
		t.Fatalf("name = %v", record["name"])
	}
}

func TestUpdate_CrossOwnerIsNotFound(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	_, err := svc.Update(ctx, "items", id, map[string]any{"name": "Stolen"}, "bob")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner update err = %v", err)
	}

	record, err := svc.GetByID(ctx, "items", id, "alice")
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if record["name"] != "Latte" {
		t.Fatalf("record was modified: %v", record["name"])
	}
}

func TestUpdate_EmptyPatchReturnsRecord(t *testing.T) {
	svc := testService(t)
	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	record, err := svc.Update(context.Background(), "items", id, map[string]any{}, "alice")
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if record["name"] != "Latte" {
		t.Fatalf("record = %v", record)
	}
}

func TestDelete_IdempotentOutcome(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))

	// A foreign caller cannot delete, and the record survives.
	deleted, err := svc.Delete(ctx, "items", id, "bob")
	if err != nil || deleted {
		t.Fatalf("cross-owner delete = %v, %v", deleted, err)
	}

	deleted, err = svc.Delete(ctx, "items", id, "alice")
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}

	// Deleting again reports false, never an error.
	deleted, err = svc.Delete(ctx, "items", id, "alice")
	if err != nil || deleted {
		t.Fatalf("repeat delete = %v, %v", deleted, err)
	}

	if _, err := svc.GetByID(ctx, "items", id, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("record still readable: %v", err)
	}
}

func TestBatchCreate_SkipsInvalidSibling(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	records, err := svc.BatchCreate(ctx, "items", []map[string]any{
		{"organization_id": float64(1), "name": "Latte", "item_type": "beverage", "base_price": 4.5},
		{"organization_id": float64(1), "flavor": "vanilla"},
		{"organization_id": float64(1), "name": "Mocha", "item_type": "beverage", "base_price": 5.0},
	}, "alice")
	if err != nil {
		t.Fatalf("batch create: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 created, got %d", len(records))
	}

	// The valid siblings were persisted despite the bad item between them.
	result, err := svc.List(ctx, "items", ListOptions{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("persisted = %d", result.Total)
	}
}

func TestBatchCreate_StorageFailureAbortsRemainder(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "organizations", map[string]any{
		"name": "Corner Cafe", "slug": "corner-cafe",
	}, ""); err != nil {
		t.Fatalf("seed organization: %v", err)
	}

	// The second item collides with the unique slug index inside the store.
	// Unlike a pre-storage rejection, that aborts the batch: the first item
	// stays committed and the third is never attempted.
	_, err := svc.BatchCreate(ctx, "organizations", []map[string]any{
		{"name": "North Branch", "slug": "north-branch"},
		{"name": "Duplicate", "slug": "corner-cafe"},
		{"name": "South Branch", "slug": "south-branch"},
	}, "")
	if err == nil {
		t.Fatal("storage failure did not abort the batch")
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		t.Fatalf("storage failure misclassified as client error: %v", err)
	}
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("err = %v", err)
	}

	for slug, want := range map[string]int64{
		"north-branch": 1,
		"south-branch": 0,
	} {
		result, err := svc.List(ctx, "organizations", ListOptions{
			Filters: map[string]any{"slug": slug},
		})
		if err != nil {
			t.Fatalf("list %s: %v", slug, err)
		}
		if result.Total != want {
			t.Fatalf("slug %s count = %d, want %d", slug, result.Total, want)
		}
	}
}

func TestBatchUpdate_SkipsMissingRecords(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id1 := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))
	foreign := itemID(t, createItem(t, svc, "bob", "Tea", 3.0))

	records, err := svc.BatchUpdate(ctx, "items", []BatchUpdateItem{
		{ID: id1, Updates: map[string]any{"base_price": 5.0}},
		{ID: 99999, Updates: map[string]any{"base_price": 1.0}},
		{ID: foreign, Updates: map[string]any{"base_price": 1.0}},
	}, "alice")
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	if len(records) != 1 || records[0]["base_price"] != 5.0 {
		t.Fatalf("records = %+v", records)
	}

	// Bob's record was not touched through the batch.
	record, err := svc.GetByID(ctx, "items", foreign, "bob")
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if record["base_price"] != 3.0 {
		t.Fatalf("foreign record modified: %v", record["base_price"])
	}
}

func TestBatchDelete_CountsOnlyOwnedRows(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id1 := itemID(t, createItem(t, svc, "alice", "Latte", 4.5))
	id2 := itemID(t, createItem(t, svc, "alice", "Mocha", 5.0))
	foreign := itemID(t, createItem(t, svc, "bob", "Tea", 3.0))

	count, err := svc.BatchDelete(ctx, "items", []int64{id1, id2, foreign, 99999}, "alice")
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if count != 2 {
		t.Fatalf("deleted_count = %d", count)
	}
	if _, err := svc.GetByID(ctx, "items", foreign, "bob"); err != nil {
		t.Fatalf("foreign record deleted: %v", err)
	}
}

// TestOrderFlow walks a full sale: an order with a line item, a modifier,
// and a payment, then completion.
func TestOrderFlow(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	const owner = "cashier-1"

	org, err := svc.Create(ctx, "organizations", map[string]any{
		"name": "Corner Cafe", "slug": "corner-cafe",
	}, owner)
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	orgID := float64(itemID(t, org))

	item, err := svc.Create(ctx, "items", map[string]any{
		"organization_id": orgID, "name": "Latte", "item_type": "beverage", "base_price": 4.5,
	}, owner)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	order, err := svc.Create(ctx, "orders", map[string]any{
		"organization_id": orgID,
		"order_number":    "A-0001",
		"subtotal":        5.0,
		"total_amount":    5.4,
	}, owner)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order["status"] != "pending" || order["payment_status"] != "unpaid" {
		t.Fatalf("order defaults = %v / %v", order["status"], order["payment_status"])
	}
	orderID := float64(itemID(t, order))

	line, err := svc.Create(ctx, "order_items", map[string]any{
		"order_id":   orderID,
		"item_id":    float64(itemID(t, item)),
		"item_name":  "Latte",
		"quantity":   float64(1),
		"unit_price": 4.5,
		"subtotal":   5.0,
	}, owner)
	if err != nil {
		t.Fatalf("create order item: %v", err)
	}

	if _, err := svc.Create(ctx, "order_item_modifiers", map[string]any{
		"order_item_id":    float64(itemID(t, line)),
		"modifier_name":    "Milk",
		"option_name":      "Oat",
		"price_adjustment": 0.5,
	}, owner); err != nil {
		t.Fatalf("create modifier: %v", err)
	}

	payment, err := svc.Create(ctx, "payments", map[string]any{
		"organization_id": orgID,
		"order_id":        orderID,
		"amount":          5.4,
		"payment_method":  "card",
	}, owner)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if payment["status"] != "pending" {
		t.Fatalf("payment status = %v", payment["status"])
	}

	done, err := svc.Update(ctx, "orders", itemID(t, order), map[string]any{
		"status":         "completed",
		"payment_status": "paid",
	}, owner)
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if done["status"] != "completed" || done["payment_status"] != "paid" {
		t.Fatalf("order after completion = %v / %v", done["status"], done["payment_status"])
	}

	lines, err := svc.List(ctx, "order_items", ListOptions{
		OwnerID: owner,
		Filters: map[string]any{"order_id": orderID},
	})
	if err != nil {
		t.Fatalf("list order items: %v", err)
	}
	if lines.Total != 1 {
		t.Fatalf("order item count = %d", lines.Total)
	}
}
