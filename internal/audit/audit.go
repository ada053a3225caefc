package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gateway-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	writeTimeout       = 2 * time.Second
	defaultMaxInFlight = 256
	schemaTimeout      = 5 * time.Second

	errSchemaFmt = "failed to ensure audit schema: %w"
)

// Decision is one authorization decision as it is kept for operators.
// The raw token is never part of it.
type Decision struct {
	ID               uuid.UUID
	RouteID          string
	Outcome          string
	ClassifiedAs     string
	GuestOverride    bool
	AccountID        *int64
	Permission       string
	TokenFingerprint string
	RequestID        string
	ClientIP         string
	Method           string
	Path             string
	Cause            string
	Metadata         map[string]any
	CreatedAt        time.Time
}

// Recorder receives decisions. Implementations must not block the caller
// on I/O.
type Recorder interface {
	Record(ctx context.Context, d *Decision)
}

func (d *Decision) normalize() {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Cause != "" {
		d.Cause = logger.SanitizeLogMessage(d.Cause)
	}
	if d.Metadata != nil {
		d.Metadata = logger.SanitizeMap(d.Metadata)
	}
}

// LogRecorder writes decisions to the structured log at debug level.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(log *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: log}
}

func (r *LogRecorder) Record(_ context.Context, d *Decision) {
	d.normalize()
	fields := []zap.Field{
		zap.String("decision_id", d.ID.String()),
		zap.String("route", d.RouteID),
		zap.String("outcome", d.Outcome),
		zap.String("classified_as", d.ClassifiedAs),
		zap.Bool("guest_override", d.GuestOverride),
		zap.String("request_id", d.RequestID),
		zap.String("client_ip", d.ClientIP),
		zap.String("method", d.Method),
		zap.String("path", d.Path),
	}
	if d.AccountID != nil {
		fields = append(fields, zap.Int64("account_id", *d.AccountID), zap.String("permission", d.Permission))
	}
	if d.TokenFingerprint != "" {
		fields = append(fields, zap.String("token_fp", d.TokenFingerprint))
	}
	if d.Cause != "" {
		fields = append(fields, zap.String("cause", d.Cause))
	}
	r.logger.Debug("auth decision", fields...)
}

const schema = `
CREATE TABLE IF NOT EXISTS auth_decisions (
	id                UUID PRIMARY KEY,
	route_id          TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	classified_as     TEXT NOT NULL,
	guest_override    BOOLEAN NOT NULL DEFAULT FALSE,
	account_id        BIGINT,
	permission        TEXT,
	token_fingerprint TEXT,
	request_id        TEXT,
	client_ip         TEXT,
	method            TEXT,
	path              TEXT,
	cause             TEXT,
	metadata          JSONB,
	created_at        TIMESTAMPTZ NOT NULL
)`

const insertDecision = `
	INSERT INTO auth_decisions (
		id, route_id, outcome, classified_as, guest_override, account_id, permission,
		token_fingerprint, request_id, client_ip, method, path, cause, metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

// PostgresRecorder persists decisions asynchronously. When more than
// maxInFlight writes are pending, new decisions are dropped and logged.
type PostgresRecorder struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	inFlight chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPostgresRecorder ensures the auth_decisions table exists on pool. The
// recorder owns the pool from then on.
func NewPostgresRecorder(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) (*PostgresRecorder, error) {
	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	if _, err := pool.Exec(schemaCtx, schema); err != nil {
		return nil, fmt.Errorf(errSchemaFmt, err)
	}

	return &PostgresRecorder{
		pool:     pool,
		logger:   log,
		inFlight: make(chan struct{}, defaultMaxInFlight),
	}, nil
}

// Log writes a decision synchronously.
func (r *PostgresRecorder) Log(ctx context.Context, d *Decision) error {
	d.normalize()

	var metadataJSON []byte
	if d.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(d.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, insertDecision,
		d.ID,
		d.RouteID,
		d.Outcome,
		d.ClassifiedAs,
		d.GuestOverride,
		d.AccountID,
		d.Permission,
		d.TokenFingerprint,
		d.RequestID,
		d.ClientIP,
		d.Method,
		d.Path,
		d.Cause,
		metadataJSON,
		d.CreatedAt,
	)
	return err
}

// Record schedules the write on its own goroutine with a bounded timeout
// detached from the request context.
func (r *PostgresRecorder) Record(_ context.Context, d *Decision) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	select {
	case r.inFlight <- struct{}{}:
	default:
		r.logger.Warn("audit backlog full, dropping decision",
			zap.String("route", d.RouteID),
			zap.String("outcome", d.Outcome))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.inFlight }()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.Log(ctx, d); err != nil {
			r.logger.Warn("audit log failed", zap.Error(err))
		}
	}()
}

// Close waits for pending writes and releases the pool.
func (r *PostgresRecorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	r.pool.Close()
}
