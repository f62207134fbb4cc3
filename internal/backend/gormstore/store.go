// Package gormstore implements the record store over a relational
// database through GORM. Every record lives in one table as a JSON
// document keyed by resource name and id, so the schema never changes
// when a resource grows a field.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"

	"github.com/google/uuid"
)

type recordRow struct {
	Resource  string         `gorm:"primaryKey;size:64"`
	ID        string         `gorm:"primaryKey;size:64"`
	Doc       datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (recordRow) TableName() string { return "record_rows" }

// Store implements the data provider contract over GORM. Filtering and
// sorting happen in process after loading the resource's rows; the table
// is a document store, not a query engine.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ provider.DataProvider = (*Store)(nil)

func NewStore(gdb *gorm.DB, log *logger.Logger) (*Store, error) {
	if err := gdb.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("migrate record_rows: %w", err)
	}
	return &Store{db: gdb, log: log.With("component", "gorm_store")}, nil
}

func (s *Store) GetOne(ctx context.Context, resource string, params provider.GetOneParams) (types.Record, error) {
	var row recordRow
	err := s.db.WithContext(ctx).
		Where("resource = ? AND id = ?", resource, params.ID).
		First(&row).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", resource, params.ID, err)
	}
	return decodeDoc(row.Doc)
}

func (s *Store) GetList(ctx context.Context, resource string, params provider.GetListParams) (provider.RecordPage, error) {
	var rows []recordRow
	err := s.db.WithContext(ctx).
		Where("resource = ?", resource).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return provider.RecordPage{}, fmt.Errorf("list %s: %w", resource, err)
	}
	records := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeDoc(row.Doc)
		if err != nil {
			return provider.RecordPage{}, fmt.Errorf("list %s: decode %q: %w", resource, row.ID, err)
		}
		records = append(records, rec)
	}
	page, total := provider.ApplyList(records, params)
	return provider.RecordPage{Data: page, Total: total}, nil
}

func (s *Store) Create(ctx context.Context, resource string, params provider.CreateParams) (types.Record, error) {
	if resource == "" {
		return nil, fmt.Errorf("empty resource name: %w", pkgerrors.ErrInvalidArgument)
	}
	rec := params.Data.Clone()
	if rec == nil {
		rec = types.Record{}
	}
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	doc, err := encodeDoc(rec)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", resource, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&recordRow{}).
			Where("resource = ? AND id = ?", resource, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%s %q already exists: %w", resource, id, pkgerrors.ErrConflict)
		}
		return tx.Create(&recordRow{Resource: resource, ID: id, Doc: doc}).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Created record", "resource", resource, "id", id)
	return rec, nil
}

func (s *Store) Update(ctx context.Context, resource string, params provider.UpdateParams) (types.Record, error) {
	var merged types.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		merged, err = mergeRow(tx, resource, params.ID, params.Data)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Updated record", "resource", resource, "id", params.ID)
	return merged, nil
}

func (s *Store) UpdateMany(ctx context.Context, resource string, params provider.UpdateManyParams) ([]string, error) {
	updated := make([]string, 0, len(params.IDs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range params.IDs {
			if _, err := mergeRow(tx, resource, id, params.Data); err != nil {
				return err
			}
			updated = append(updated, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Updated records", "resource", resource, "count", len(updated))
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, resource string, params provider.DeleteParams) (types.Record, error) {
	var removed types.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row recordRow
		err := tx.Where("resource = ? AND id = ?", resource, params.ID).First(&row).Error
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if removed, err = decodeDoc(row.Doc); err != nil {
			return err
		}
		return tx.Where("resource = ? AND id = ?", resource, params.ID).Delete(&recordRow{}).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Deleted record", "resource", resource, "id", params.ID)
	return removed, nil
}

// mergeRow overlays patch onto the stored document and writes it back.
// The id field stays immutable.
func mergeRow(tx *gorm.DB, resource, id string, patch types.Record) (types.Record, error) {
	var row recordRow
	err := tx.Where("resource = ? AND id = ?", resource, id).First(&row).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %q: %w", resource, id, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	existing, err := decodeDoc(row.Doc)
	if err != nil {
		return nil, err
	}
	merged := existing.Merge(patch)
	merged["id"] = id
	doc, err := encodeDoc(merged)
	if err != nil {
		return nil, err
	}
	err = tx.Model(&recordRow{}).
		Where("resource = ? AND id = ?", resource, id).
		Update("doc", doc).Error
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func encodeDoc(rec types.Record) (datatypes.JSON, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode doc: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeDoc(doc datatypes.JSON) (types.Record, error) {
	var rec types.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode doc: %w", err)
	}
	return rec, nil
}
