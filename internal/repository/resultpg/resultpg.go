// Package resultpg stores processing results in Postgres
package resultpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

// sortColumns - белый список колонок для ORDER BY, значения приходят уже нормализованными
var sortColumns = map[string]string{
	model.ByProcessed: "processed_at",
	model.ByCreated:   "created_at",
	model.BySize:      "file_size",
}

var orderDirections = map[string]string{
	model.OrderASC:  "ASC",
	model.OrderDESC: "DESC",
}

func (p PostgresRepo) Save(ctx context.Context, r *model.HistoryRecord) error {
	query := `INSERT INTO processing_results (id, request_id, capability, url, file_size, operations, processed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at`
	return p.DB.QueryRowContext(ctx, query, r.ID, r.RequestID, r.Capability, r.URL, r.FileSize, r.Operations, r.ProcessedAt).
		Scan(&r.CreatedAt)
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.HistoryRecord, error) {
	query := `SELECT id, request_id, capability, url, file_size, operations, processed_at, created_at
	FROM processing_results
	WHERE id = $1`
	var rec model.HistoryRecord

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&rec.ID,
		&rec.RequestID,
		&rec.Capability,
		&rec.URL,
		&rec.FileSize,
		&rec.Operations,
		&rec.ProcessedAt,
		&rec.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrRecordNotFound
		default:
			return nil, err // 500
		}
	}
	return &rec, nil
}

func (p PostgresRepo) List(ctx context.Context, req *model.ListRequest) ([]model.HistoryRecord, error) {
	column, ok := sortColumns[req.Sort]
	if !ok {
		column = sortColumns[model.ByCreated]
	}
	direction, ok := orderDirections[req.Order]
	if !ok {
		direction = orderDirections[model.OrderDESC]
	}

	query := fmt.Sprintf(`SELECT id, request_id, capability, url, file_size, operations, processed_at, created_at
	FROM processing_results
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, column, direction)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			zlog.Logger.Warn().Err(err).Msg("Error while closing *sql.Rows after scanning")
		}
	}()

	records := make([]model.HistoryRecord, 0, req.Limit)
	for rows.Next() {
		var rec model.HistoryRecord
		if err := rows.Scan(&rec.ID,
			&rec.RequestID,
			&rec.Capability,
			&rec.URL,
			&rec.FileSize,
			&rec.Operations,
			&rec.ProcessedAt,
			&rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return records, nil
}
