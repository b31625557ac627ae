package services

import (
	"context"

	aws_pkg "storefront-service/pkg/aws"

	"go.uber.org/zap"
)

// MetaData is the pagination block of every list response.
type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

func newMeta(page, limit int, total int64) MetaData {
	return MetaData{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: calculateTotalPages(total, limit),
		HasMore:    total > int64(page*limit),
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// recordCount bumps a CloudWatch counter. Metrics are best effort: a failure is logged
// and never fails the operation being measured.
func recordCount(ctx context.Context, metrics aws_pkg.MetricsRecorder, logger *zap.Logger, metric string) {
	if metrics == nil {
		return
	}
	if err := metrics.RecordCount(ctx, metric, nil); err != nil {
		logger.Warn("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
