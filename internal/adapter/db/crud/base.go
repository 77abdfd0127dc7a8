// Package crud implements a generic create/read/update/delete repository on
// top of GORM, plus its specialization for users.
package crud

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	pkgerrors "user-crud-service/pkg/errors"
)

const tracerName = "user-crud-service/internal/adapter/db/crud"

// Base provides CRUD primitives for the GORM model T. Every method runs in its
// own unit-of-work: a transaction opened for that call, committed on success
// and rolled back on error or panic. Base holds no per-request state and is
// safe for concurrent use.
type Base[T any] struct {
	db     *gorm.DB
	schema *schema.Schema
	log    *zap.Logger
	tracer trace.Tracer
}

// NewBase parses T's schema once and returns a repository bound to db.
func NewBase[T any](db *gorm.DB, log *zap.Logger) (*Base[T], error) {
	s, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model schema: %w", err)
	}
	if s.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("model %s has no primary key", s.Name)
	}

	return &Base[T]{
		db:     db,
		schema: s,
		log:    log.With(zap.String("table", s.Table)),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Table returns the table name T is stored in.
func (b *Base[T]) Table() string {
	return b.schema.Table
}

// Migrate creates T's table if it does not exist yet.
func (b *Base[T]) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(new(T)); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", b.schema.Table, err)
	}
	return nil
}

// Create inserts entity and backfills its generated primary key.
func (b *Base[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, errors.New("entity cannot be nil")
	}

	err := b.unitOfWork(ctx, "Create", func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		b.log.Error("failed to create row", zap.Error(err))
		return nil, fmt.Errorf("failed to create %s: %w", b.schema.Table, err)
	}

	return entity, nil
}

// Get returns the row with the given primary key, or nil when none exists.
// A miss is not an error.
func (b *Base[T]) Get(ctx context.Context, id int64) (*T, error) {
	var (
		entity T
		found  bool
	)

	err := b.unitOfWork(ctx, "Get", func(tx *gorm.DB) (err error) {
		found, err = first(tx, id, &entity)
		return err
	})
	if err != nil {
		b.log.Error("failed to get row", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get %s: %w", b.schema.Table, err)
	}
	if !found {
		return nil, nil
	}

	return &entity, nil
}

// GetAll returns every row ordered by primary key. The result is never nil.
func (b *Base[T]) GetAll(ctx context.Context) ([]T, error) {
	entities := make([]T, 0)

	err := b.unitOfWork(ctx, "GetAll", func(tx *gorm.DB) error {
		return tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: b.schema.PrioritizedPrimaryField.DBName},
		}).Find(&entities).Error
	})
	if err != nil {
		b.log.Error("failed to list rows", zap.Error(err))
		return nil, fmt.Errorf("failed to list %s: %w", b.schema.Table, err)
	}

	return entities, nil
}

// Update applies fields, keyed by column name, to the row with the given
// primary key and returns the updated row, or nil when no such row exists.
// Only the given columns are written. An explicit nil value overwrites the
// column with its zero value. Unknown columns, the primary key and values
// that cannot be converted to the column's type are rejected with a
// ValidationError before the store is touched.
func (b *Base[T]) Update(ctx context.Context, id int64, fields map[string]any) (*T, error) {
	assignments, err := b.resolve(fields)
	if err != nil {
		return nil, err
	}

	var (
		entity T
		found  bool
	)

	err = b.unitOfWork(ctx, "Update", func(tx *gorm.DB) (err error) {
		found, err = first(tx, id, &entity)
		if err != nil || !found || len(assignments) == 0 {
			return err
		}

		rv := reflect.ValueOf(&entity).Elem()
		columns := make([]string, 0, len(assignments))
		for _, a := range assignments {
			if err := a.field.Set(ctx, rv, a.value.Interface()); err != nil {
				return fmt.Errorf("failed to assign %s: %w", a.field.DBName, err)
			}
			columns = append(columns, a.field.DBName)
		}

		return tx.Model(&entity).Select(columns).Updates(&entity).Error
	})
	if err != nil {
		b.log.Error("failed to update row", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update %s: %w", b.schema.Table, err)
	}
	if !found {
		return nil, nil
	}

	return &entity, nil
}

// Delete permanently removes the row with the given primary key and reports
// whether a row existed.
func (b *Base[T]) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool

	err := b.unitOfWork(ctx, "Delete", func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		b.log.Error("failed to delete row", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete %s: %w", b.schema.Table, err)
	}

	return deleted, nil
}

func (b *Base[T]) unitOfWork(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	ctx, span := b.tracer.Start(ctx, "crud."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.sql.table", b.schema.Table)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return b.db.WithContext(ctx).Transaction(fn)
}

func first[T any](tx *gorm.DB, id int64, dest *T) (bool, error) {
	err := tx.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type assignment struct {
	field *schema.Field
	value reflect.Value
}

// resolve validates the field-set against T's columns, in key order so the
// reported error is deterministic.
func (b *Base[T]) resolve(fields map[string]any) ([]assignment, error) {
	out := make([]assignment, 0, len(fields))

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		f, ok := b.schema.FieldsByDBName[name]
		if !ok {
			return nil, pkgerrors.NewValidationError(name, "unknown field")
		}
		if f.PrimaryKey || !f.Updatable {
			return nil, pkgerrors.NewValidationError(name, "field cannot be updated")
		}

		v, err := convert(f.FieldType, fields[name])
		if err != nil {
			return nil, pkgerrors.NewValidationError(name, err.Error())
		}
		out = append(out, assignment{field: f, value: v})
	}

	return out, nil
}
