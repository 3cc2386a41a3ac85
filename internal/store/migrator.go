package store

import (
	"context"
	"fmt"
	"strings"

	"pos-backend/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// MigrateAll ensures a table exists for every entity in the registry.
func (m *Migrator) MigrateAll(ctx context.Context, reg *metadata.Registry) error {
	for _, entity := range reg.All() {
		if err := m.Migrate(ctx, entity); err != nil {
			return fmt.Errorf("migrate %s: %w", entity.Name, err)
		}
	}
	return nil
}

// Migrate ensures the table matches the entity descriptor. Creates the
// table if it doesn't exist, or adds missing columns. Columns are never
// dropped or retyped.
func (m *Migrator) Migrate(ctx context.Context, entity *metadata.Entity) error {
	exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		return m.createTable(ctx, entity)
	}

	return m.alterTable(ctx, entity)
}

func (m *Migrator) createTable(ctx context.Context, entity *metadata.Entity) error {
	cols := []string{metadata.PrimaryKey + " " + m.store.Dialect.SerialPrimaryKey()}
	for i := range entity.Fields {
		cols = append(cols, m.buildColumnDef(&entity.Fields[i]))
	}

	sqlStr := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", entity.Table, strings.Join(cols, ",\n  "))
	if _, err := m.store.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("create table %s: %w", entity.Table, err)
	}

	return m.createIndexes(ctx, entity)
}

func (m *Migrator) alterTable(ctx context.Context, entity *metadata.Entity) error {
	existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", entity.Table, err)
	}

	for i := range entity.Fields {
		f := &entity.Fields[i]
		if _, ok := existing[f.Name]; ok {
			continue
		}
		// Added columns are nullable regardless of the descriptor; existing
		// rows have no value to satisfy NOT NULL.
		sqlStr := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			entity.Table, f.Name, m.store.Dialect.ColumnType(f.Type))
		if def := m.defaultClause(f); def != "" {
			sqlStr += def
		}
		if _, err := m.store.DB.ExecContext(ctx, sqlStr); err != nil {
			return fmt.Errorf("add column %s.%s: %w", entity.Table, f.Name, err)
		}
	}

	return m.createIndexes(ctx, entity)
}

func (m *Migrator) buildColumnDef(f *metadata.Field) string {
	col := f.Name + " " + m.store.Dialect.ColumnType(f.Type)
	if f.Required && !f.Nullable {
		col += " NOT NULL"
	}
	col += m.defaultClause(f)
	return col
}

func (m *Migrator) defaultClause(f *metadata.Field) string {
	if f.Default == nil {
		return ""
	}
	if f.Type == metadata.TypeTimestamp && f.Default == metadata.DefaultNow {
		return " DEFAULT (" + m.store.Dialect.NowExpr() + ")"
	}
	switch v := f.Default.(type) {
	case string:
		return fmt.Sprintf(" DEFAULT '%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		return fmt.Sprintf(" DEFAULT %t", v)
	default:
		return fmt.Sprintf(" DEFAULT %v", v)
	}
}

func (m *Migrator) createIndexes(ctx context.Context, entity *metadata.Entity) error {
	for _, f := range entity.Fields {
		if f.Unique {
			sqlStr := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
				entity.Table, f.Name, entity.Table, f.Name)
			if _, err := m.store.DB.ExecContext(ctx, sqlStr); err != nil {
				return fmt.Errorf("create unique index on %s.%s: %w", entity.Table, f.Name, err)
			}
		}
	}

	// Owner-scoped entities filter on the owner field constantly.
	if entity.IsOwnerScoped() {
		sqlStr := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			entity.Table, entity.OwnerField, entity.Table, entity.OwnerField)
		if _, err := m.store.DB.ExecContext(ctx, sqlStr); err != nil {
			return fmt.Errorf("create owner index on %s: %w", entity.Table, err)
		}
	}

	return nil
}
