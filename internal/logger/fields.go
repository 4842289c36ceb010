package logger

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldJob       = "job_id"
	FieldCandidate = "candidate_id"
	FieldRun       = "run_id"
)

// WithFields attaches fields to the logger, falling back to a no-op logger
// when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the AI provider and model. Empty values are dropped.
func CommonFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if v := strings.TrimSpace(provider); v != "" {
		fields = append(fields, zap.String(FieldProvider, v))
	}
	if v := strings.TrimSpace(model); v != "" {
		fields = append(fields, zap.String(FieldModel, v))
	}
	return fields
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// PairFields identifies a (candidate, job) pair in log entries.
func PairFields(candidateID, jobID uuid.UUID) []zap.Field {
	return []zap.Field{
		zap.String(FieldCandidate, candidateID.String()),
		zap.String(FieldJob, jobID.String()),
	}
}
