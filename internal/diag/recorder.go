// Package diag captures the raw response envelope of transforms that
// reported success but yielded no usable image. The upstream response
// shape is unstable, so these envelopes are the primary debugging
// material for new shapes the extractor does not recognize yet.
package diag

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"brandify/internal/agent"
	"brandify/internal/transform"
)

const insertCapture = `
INSERT INTO envelope_captures (session_id, envelope, captured_at)
VALUES ($1, $2, now())`

// Recorder logs every captured envelope with full structure and, when a
// database pool is configured, also persists it. Capture never fails
// the calling workflow.
type Recorder struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewRecorder(pool *pgxpool.Pool, logger zerolog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

func (r *Recorder) Capture(ctx context.Context, sessionID string, env agent.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("diag: envelope not serializable")
		return
	}
	r.logger.Warn().Str("session_id", sessionID).RawJSON("envelope", payload).
		Msg("diag: successful response contained no image")
	if r.pool == nil {
		return
	}
	if _, err := r.pool.Exec(ctx, insertCapture, sessionID, payload); err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("diag: envelope capture insert failed")
	}
}

var _ transform.Capturer = (*Recorder)(nil)
