package engine

import (
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/metadata"
	"pos-backend/internal/store"
)

// Predicate is an equality condition over one field.
type Predicate struct {
	Field string
	Value any
}

// OrderClause is a single ORDER BY term.
type OrderClause struct {
	Field string
	Desc  bool
}

// defaultOrder is applied when no (valid) sort is requested: newest first.
var defaultOrder = OrderClause{Field: metadata.PrimaryKey, Desc: true}

// pkField lets the surrogate key share the coercion path of regular fields.
var pkField = &metadata.Field{Name: metadata.PrimaryKey, Type: metadata.TypeInteger}

// parseSort resolves a sort parameter ("field" or "-field") against the
// entity. An unknown sort field is silently ignored and the default
// ordering applies; it is never an error.
func parseSort(entity *metadata.Entity, sort string) OrderClause {
	if sort == "" {
		return defaultOrder
	}
	desc := false
	field := sort
	if strings.HasPrefix(sort, "-") {
		desc = true
		field = sort[1:]
	}
	if !entity.HasField(field) {
		return defaultOrder
	}
	return OrderClause{Field: field, Desc: desc}
}

// buildPredicates validates a filter map against the entity and converts it
// to equality predicates in entity field order. Unknown keys are rejected
// before any storage access.
func buildPredicates(entity *metadata.Entity, filters map[string]any) ([]Predicate, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	for key := range filters {
		if !entity.HasField(key) {
			return nil, InvalidFieldError(entity.Name, key)
		}
	}
	preds := make([]Predicate, 0, len(filters))
	if v, ok := filters[metadata.PrimaryKey]; ok {
		coerced, err := coerceValue(pkField, v)
		if err != nil {
			return nil, InvalidValueError(metadata.PrimaryKey, err)
		}
		preds = append(preds, Predicate{Field: metadata.PrimaryKey, Value: coerced})
	}
	for i := range entity.Fields {
		f := &entity.Fields[i]
		v, ok := filters[f.Name]
		if !ok {
			continue
		}
		coerced, err := coerceValue(f, v)
		if err != nil {
			return nil, InvalidValueError(f.Name, err)
		}
		preds = append(preds, Predicate{Field: f.Name, Value: coerced})
	}
	return preds, nil
}

// coerceValue converts a JSON-decoded value to the Go type matching the
// field's semantic type. nil passes through; non-nullable violations are
// left to the database.
func coerceValue(field *metadata.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch field.Type {
	case metadata.TypeInteger:
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
	case metadata.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", v)
		}
	case metadata.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", v)
	case metadata.TypeTimestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				return t, nil
			}
			if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
				return t, nil
			}
			return nil, fmt.Errorf("invalid timestamp %q", ts)
		default:
			return nil, fmt.Errorf("expected timestamp, got %T", v)
		}
	default: // string
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string, got %T", v)
	}
}

// BuildSelectSQL builds a parameterized SELECT over the entity's columns
// with equality predicates, ordering, and pagination.
func BuildSelectSQL(d store.Dialect, entity *metadata.Entity, preds []Predicate, order OrderClause, skip, limit int) (string, []any) {
	pb := d.NewParamBuilder()

	sqlStr := fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(entity.FieldNames(), ", "), entity.Table)
	sqlStr += whereClause(pb, preds)

	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	sqlStr += fmt.Sprintf(" ORDER BY %s %s", order.Field, dir)
	sqlStr += fmt.Sprintf(" LIMIT %s OFFSET %s", pb.Add(limit), pb.Add(skip))

	return sqlStr, pb.Params()
}

// BuildCountSQL builds a COUNT query over the same predicate set as the
// select, without pagination.
func BuildCountSQL(d store.Dialect, entity *metadata.Entity, preds []Predicate) (string, []any) {
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s", entity.Table)
	sqlStr += whereClause(pb, preds)
	return sqlStr, pb.Params()
}

// BuildInsertSQL builds an INSERT for the given field values, returning the
// assigned id. Columns follow entity field order for stable SQL.
func BuildInsertSQL(d store.Dialect, entity *metadata.Entity, fields map[string]any) (string, []any) {
	pb := d.NewParamBuilder()
	var cols, placeholders []string
	for i := range entity.Fields {
		name := entity.Fields[i].Name
		v, ok := fields[name]
		if !ok {
			continue
		}
		cols = append(cols, name)
		placeholders = append(placeholders, pb.Add(v))
	}

	if len(cols) == 0 {
		// Defaults-only insert
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			entity.Table, metadata.PrimaryKey), nil
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		entity.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		metadata.PrimaryKey,
	), pb.Params()
}

// BuildUpdateSQL builds an UPDATE applying the patch to the row with the
// given id. Returns an empty string when the patch carries no columns.
func BuildUpdateSQL(d store.Dialect, entity *metadata.Entity, id int64, patch map[string]any) (string, []any) {
	pb := d.NewParamBuilder()
	var sets []string
	for i := range entity.Fields {
		name := entity.Fields[i].Name
		v, ok := patch[name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", name, pb.Add(v)))
	}
	if len(sets) == 0 {
		return "", nil
	}

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		entity.Table, strings.Join(sets, ", "), metadata.PrimaryKey, pb.Add(id))
	return sqlStr, pb.Params()
}

// BuildDeleteSQL builds a hard DELETE by primary key.
func BuildDeleteSQL(d store.Dialect, entity *metadata.Entity, id int64) (string, []any) {
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		entity.Table, metadata.PrimaryKey, pb.Add(id))
	return sqlStr, pb.Params()
}

func whereClause(pb store.ParamBuilder, preds []Predicate) string {
	if len(preds) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		clauses = append(clauses, fmt.Sprintf("%s = %s", p.Field, pb.Add(p.Value)))
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
