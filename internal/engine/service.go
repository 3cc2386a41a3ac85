package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pos-backend/internal/metadata"
	"pos-backend/internal/store"
)

// Service is the generic entity access layer: descriptor-driven CRUD, query,
// and batch operations over any registered entity. Ownership scoping is
// applied uniformly: when an entity declares an owner field and the caller
// supplies an identity, records of other owners are invisible, not
// forbidden.
type Service struct {
	store    *store.Store
	registry *metadata.Registry
}

func NewService(s *store.Store, reg *metadata.Registry) *Service {
	return &Service{store: s, registry: reg}
}

// ListOptions carries the query parameters of a list operation.
type ListOptions struct {
	Filters map[string]any
	Sort    string
	Skip    int
	Limit   int
	OwnerID string
}

// ListResult is a page of records plus the unpaginated match count.
type ListResult struct {
	Records []map[string]any `json:"records"`
	Total   int64            `json:"total"`
	Skip    int              `json:"skip"`
	Limit   int              `json:"limit"`
}

// BatchUpdateItem pairs a record id with its partial update.
type BatchUpdateItem struct {
	ID      int64          `json:"id"`
	Updates map[string]any `json:"updates"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 2000
)

// Registry exposes the entity catalog backing this service.
func (s *Service) Registry() *metadata.Registry {
	return s.registry
}

func (s *Service) resolve(entityName string) (*metadata.Entity, error) {
	entity := s.registry.Get(entityName)
	if entity == nil {
		return nil, UnknownEntityError(entityName)
	}
	return entity, nil
}

// ownerPredicate returns the owner equality predicate, or nil when the
// entity is unscoped or no identity was supplied.
func ownerPredicate(entity *metadata.Entity, ownerID string) []Predicate {
	if !entity.IsOwnerScoped() || ownerID == "" {
		return nil
	}
	return []Predicate{{Field: entity.OwnerField, Value: ownerID}}
}

// Create validates and coerces the field map, injects the owner identity,
// and inserts the record in a single transaction. The stored record,
// including the assigned id and server-computed defaults, is read back and
// returned.
func (s *Service) Create(ctx context.Context, entityName string, fields map[string]any, ownerID string) (map[string]any, error) {
	entity, err := s.resolve(entityName)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(fields)+1)
	for key, v := range fields {
		if key == metadata.PrimaryKey {
			// The surrogate key is storage-assigned; a client-sent id is
			// rejected rather than silently dropped.
			return nil, InvalidFieldError(entityName, key)
		}
		f := entity.GetField(key)
		if f == nil {
			return nil, InvalidFieldError(entityName, key)
		}
		coerced, err := coerceValue(f, v)
		if err != nil {
			return nil, InvalidValueError(key, err)
		}
		values[key] = coerced
	}

	// Ownership is never client-settable.
	if entity.IsOwnerScoped() && ownerID != "" {
		values[entity.OwnerField] = ownerID
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sqlStr, params := BuildInsertSQL(s.store.Dialect, entity, values)
	row, err := store.QueryRow(ctx, tx, sqlStr, params...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", entity.Table, s.store.Dialect.MapError(err))
	}
	id, err := recordID(row)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", entity.Table, err)
	}

	record, err := s.fetch(ctx, tx, entity, id, nil)
	if err != nil {
		return nil, fmt.Errorf("read back %s/%d: %w", entity.Name, id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Printf("created %s id=%d", entity.Name, id)
	return record, nil
}

// GetByID returns the record, or store.ErrNotFound when it does not exist
// or belongs to a different owner. The two cases are indistinguishable on
// purpose.
func (s *Service) GetByID(ctx context.Context, entityName string, id int64, ownerID string) (map[string]any, error) {
	entity, err := s.resolve(entityName)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.store.DB, entity, id, ownerPredicate(entity, ownerID))
}

// List returns one page of matching records plus the total match count.
// Every filter key must be a known field; the sort field falls back to the
// default ordering when unknown.
func (s *Service) List(ctx context.Context, entityName string, opts ListOptions) (*ListResult, error) {
	entity, err := s.resolve(entityName)
	if err != nil {
		return nil, err
	}

	preds, err := buildPredicates(entity, opts.Filters)
	if err != nil {
		return nil, err
	}
	preds = append(preds, ownerPredicate(entity, opts.OwnerID)...)

	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	countSQL, countParams := BuildCountSQL(s.store.Dialect, entity, preds)
	total, err := store.QueryCount(ctx, s.store.DB, countSQL, countParams...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", entity.Name, err)
	}

	order := parseSort(entity, opts.Sort)
	sqlStr, params := BuildSelectSQL(s.store.Dialect, entity, preds, order, skip, limit)
	rows, err := store.QueryRows(ctx, s.store.DB, sqlStr, params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity.Name, err)
	}
	if s.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, entity.BooleanFields())
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return &ListResult{Records: rows, Total: total, Skip: skip, Limit: limit}, nil
}

// Update applies a partial update to an owned record in one transaction and
// returns the stored state. Keys absent from the patch are untouched; keys
// present with a null value are written as null. Unknown keys and the owner
// field are skipped. Returns store.ErrNotFound without writing when the
// record is absent or owned by someone else.
func (s *Service) Update(ctx context.Context, entityName string, id int64, patch map[string]any, ownerID string) (map[string]any, error) {
	entity, err := s.resolve(entityName)
	if err != nil {
		return nil, err
	}
	owner := ownerPredicate(entity, ownerID)

	if _, err := s.fetch(ctx, s.store.DB, entity, id, owner); err != nil {
		return nil, err
	}

	values := make(map[string]any, len(patch))
	for key, v := range patch {
		if key == metadata.PrimaryKey || key == entity.OwnerField {
			continue
		}
		f := entity.GetField(key)
		if f == nil {
			continue
		}
		coerced, err := coerceValue(f, v)
		if err != nil {
			return nil, InvalidValueError(key, err)
		}
		values[key] = coerced
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sqlStr, params := BuildUpdateSQL(s.store.Dialect, entity, id, values)
	if sqlStr != "" {
		if _, err := store.Exec(ctx, tx, sqlStr, params...); err != nil {
			return nil, fmt.Errorf("update %s/%d: %w", entity.Name, id, s.store.Dialect.MapError(err))
		}
	}

	record, err := s.fetch(ctx, tx, entity, id, owner)
	if err != nil {
		return nil, fmt.Errorf("read back %s/%d: %w", entity.Name, id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Printf("updated %s id=%d", entity.Name, id)
	return record, nil
}

// Delete hard-deletes an owned record. Returns false, never an error, when
// the record does not exist or is not owned by the caller. Dependent
// records are not cascaded.
func (s *Service) Delete(ctx context.Context, entityName string, id int64, ownerID string) (bool, error) {
	entity, err := s.resolve(entityName)
	if err != nil {
		return false, err
	}

	if _, err := s.fetch(ctx, s.store.DB, entity, id, ownerPredicate(entity, ownerID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sqlStr, params := BuildDeleteSQL(s.store.Dialect, entity, id)
	affected, err := store.Exec(ctx, tx, sqlStr, params...)
	if err != nil {
		return false, fmt.Errorf("delete %s/%d: %w", entity.Name, id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	if affected == 0 {
		return false, nil
	}
	log.Printf("deleted %s id=%d", entity.Name, id)
	return true, nil
}

// BatchCreate creates each item independently, in its own transaction.
// Items rejected for client-side reasons (unknown field, bad value) are
// skipped; a storage failure aborts the remaining items.
func (s *Service) BatchCreate(ctx context.Context, entityName string, items []map[string]any, ownerID string) ([]map[string]any, error) {
	if _, err := s.resolve(entityName); err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(items))
	for _, fields := range items {
		record, err := s.Create(ctx, entityName, fields, ownerID)
		if err != nil {
			if isClientError(err) {
				continue
			}
			return nil, err
		}
		results = append(results, record)
	}
	return results, nil
}

// BatchUpdate applies each partial update independently. Items that resolve
// to a missing or foreign-owned record are skipped.
func (s *Service) BatchUpdate(ctx context.Context, entityName string, items []BatchUpdateItem, ownerID string) ([]map[string]any, error) {
	if _, err := s.resolve(entityName); err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, err := s.Update(ctx, entityName, item.ID, item.Updates, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || isClientError(err) {
				continue
			}
			return nil, err
		}
		results = append(results, record)
	}
	return results, nil
}

// BatchDelete deletes each id independently and reports how many rows were
// actually removed.
func (s *Service) BatchDelete(ctx context.Context, entityName string, ids []int64, ownerID string) (int, error) {
	if _, err := s.resolve(entityName); err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		ok, err := s.Delete(ctx, entityName, id, ownerID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// fetch reads one record by id plus any extra predicates (owner scoping).
func (s *Service) fetch(ctx context.Context, q store.Querier, entity *metadata.Entity, id int64, extra []Predicate) (map[string]any, error) {
	preds := append([]Predicate{{Field: metadata.PrimaryKey, Value: id}}, extra...)
	sqlStr, params := BuildSelectSQL(s.store.Dialect, entity, preds, defaultOrder, 0, 1)
	row, err := store.QueryRow(ctx, q, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	if s.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans([]map[string]any{row}, entity.BooleanFields())
	}
	return row, nil
}

// recordID extracts the assigned primary key from an INSERT ... RETURNING row.
func recordID(row map[string]any) (int64, error) {
	switch v := row[metadata.PrimaryKey].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

// isClientError reports whether err is a pre-storage rejection (4xx class).
func isClientError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Status < 500
}
