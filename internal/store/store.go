// Package store persists upstream calls and upserts procurement records by
// their PNCP control number.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/logging"
	"pncp/internal/models"
	"pncp/internal/pkg/pncp"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// RecordCall appends the provenance of one successful upstream call. params
// are stored as sent, after defaults.
func (s *Store) RecordCall(ctx context.Context, marker string, params any, page *pncp.Page) (*models.APIResponseMetadata, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "record call", Err: fmt.Errorf("encode params: %w", err)}
	}

	meta := models.APIResponseMetadata{
		Endpoint:         marker,
		RequestParams:    datatypes.JSON(raw),
		TotalRegistros:   page.TotalRegistros,
		TotalPaginas:     page.TotalPaginas,
		NumeroPagina:     page.NumeroPagina,
		PaginasRestantes: page.PaginasRestantes,
		Empty:            page.Empty,
		ResponseTime:     time.Now(),
	}

	if err := gorm.G[models.APIResponseMetadata](s.DB).Create(ctx, &meta); err != nil {
		return nil, storageError("record call", err)
	}

	return &meta, nil
}

// UpsertRecord inserts rec or, when its natural key exists, overwrites every
// mutable column. id and created_at of an existing row are kept.
func (s *Store) UpsertRecord(ctx context.Context, rec models.Record) error {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: rec.NaturalKeyColumn()}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return storageError("upsert "+rec.NaturalKey(), err)
	}

	return nil
}

// UpsertRecords upserts each record on its own, in order. A failing record
// does not stop the rest; failures are joined into one StorageError.
func (s *Store) UpsertRecords(ctx context.Context, recs []models.Record) (int, error) {
	var (
		written int
		errs    []error
	)

	for _, rec := range recs {
		if err := s.UpsertRecord(ctx, rec); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", rec.NaturalKey()).Msg("upsert failed")
			errs = append(errs, err)
			continue
		}
		written++
	}

	if len(errs) > 0 {
		batchErr := &apperrors.StorageError{
			Op:  fmt.Sprintf("upsert batch (%d of %d failed)", len(errs), len(recs)),
			Err: errors.Join(errs...),
		}
		// first known SQLSTATE
		for _, err := range errs {
			var storageErr *apperrors.StorageError
			if errors.As(err, &storageErr) && storageErr.Code != "" {
				batchErr.Code = storageErr.Code
				break
			}
		}
		return written, batchErr
	}

	return written, nil
}

// ActiveModalidades returns up to limit active modalities by ascending id.
// A non-positive limit returns all of them.
func (s *Store) ActiveModalidades(ctx context.Context, limit int) ([]models.ModalidadeContratacao, error) {
	q := gorm.G[models.ModalidadeContratacao](s.DB).Where("ativo = ?", true).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	rows, err := q.Find(ctx)
	if err != nil {
		return nil, storageError("list active modalidades", err)
	}

	return rows, nil
}

func (s *Store) ListModalidades(ctx context.Context) ([]models.ModalidadeContratacao, error) {
	return listActive[models.ModalidadeContratacao](ctx, s.DB, "modalidades")
}

func (s *Store) ListModosDisputa(ctx context.Context) ([]models.ModoDisputa, error) {
	return listActive[models.ModoDisputa](ctx, s.DB, "modos de disputa")
}

func (s *Store) ListSituacoes(ctx context.Context) ([]models.SituacaoContratacao, error) {
	return listActive[models.SituacaoContratacao](ctx, s.DB, "situacoes")
}

func listActive[T any](ctx context.Context, db *gorm.DB, what string) ([]T, error) {
	rows, err := gorm.G[T](db).Where("ativo = ?", true).Order("nome").Find(ctx)
	if err != nil {
		return nil, storageError("list "+what, err)
	}

	return rows, nil
}

func storageError(op string, err error) *apperrors.StorageError {
	storageErr := &apperrors.StorageError{Op: op, Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		storageErr.Code = pgErr.Code
	}

	return storageErr
}

// RecentCalls returns the latest call-log entries, newest first.
func (s *Store) RecentCalls(ctx context.Context, limit int) ([]models.APIResponseMetadata, error) {
	rows, err := gorm.G[models.APIResponseMetadata](s.DB).Order("id DESC").Limit(limit).Find(ctx)
	if err != nil {
		return nil, storageError("list calls", err)
	}

	return rows, nil
}
