package storage

import (
	"context"
	"fmt"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// RecordMetric appends a business metric data point.
func (db *DB) RecordMetric(ctx context.Context, m model.BusinessMetric) (model.BusinessMetric, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO business_metrics (metric_name, value, category)
		 VALUES ($1, $2, $3)
		 RETURNING id, recorded_at`,
		m.MetricName, m.Value, string(m.Category),
	)
	if err := row.Scan(&m.ID, &m.RecordedAt); err != nil {
		return model.BusinessMetric{}, fmt.Errorf("storage: record metric: %w", err)
	}
	return m, nil
}

// ListMetrics returns recent data points, newest first, optionally filtered
// by category.
func (db *DB) ListMetrics(ctx context.Context, category model.MetricCategory, limit int) ([]model.BusinessMetric, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, metric_name, value, category, recorded_at FROM business_metrics`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, string(category))
	}
	query += fmt.Sprintf(` ORDER BY recorded_at DESC LIMIT %d`, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list metrics: %w", err)
	}
	defer rows.Close()

	metrics := []model.BusinessMetric{}
	for rows.Next() {
		var m model.BusinessMetric
		if err := rows.Scan(&m.ID, &m.MetricName, &m.Value, &m.Category, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("storage: scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate metrics: %w", err)
	}
	return metrics, nil
}
