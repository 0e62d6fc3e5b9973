package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/pkg/telemetry"
)

// pool is the slice of *pgxpool.Pool's API this package needs, narrowed to
// an interface so tests can substitute pgxmock.
type pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Record is the persisted orders row.
type Record struct {
	ID             string
	UserID         string
	RestaurantID   string
	RestaurantName string
	SessionID      string
	IdempotencyKey string
	Items          []models.CartItem
	TotalPLN       float64
	TotalCents     int64
	Status         string
}

// IdempotencyKey is the SHA-256 of the session id plus the cart's items,
// sorted by name so the key is stable regardless of add order.
func IdempotencyKey(sessionID string, items []models.CartItem) string {
	sorted := make([]models.CartItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString(sessionID)
	for _, it := range sorted {
		fmt.Fprintf(&b, "|%s:%d:%.2f", it.Name, it.Qty, it.Price)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Store persists confirmed orders to Postgres with an idempotency
// safety net.
type Store struct {
	pool   pool
	logger *zap.Logger
	sq     sq.StatementBuilderType
}

func NewStore(p pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: p, logger: logger, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// PersistOrderToDB inserts rec, returning the existing row's id unchanged
// if its idempotency_key was already seen. If the schema lacks the
// idempotency_key column, the insert is retried once without it.
// Failures are logged and returned, never panicked — the conversational
// reply to the user does not depend on persistence succeeding.
func (s *Store) PersistOrderToDB(ctx context.Context, rec Record) (string, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "orders.PersistOrderToDB")
	defer span.End()
	span.SetAttributes(attribute.String("restaurant_id", rec.RestaurantID), attribute.String("session_id", rec.SessionID))

	id, err := s.insert(ctx, rec, true)
	if err != nil && isMissingColumn(err, "idempotency_key") {
		s.logger.Warn("orders: idempotency_key column missing, retrying without it", zap.Error(err))
		id, err = s.insert(ctx, rec, false)
	}
	if err != nil {
		s.logger.Error("orders: persist failed", zap.Error(err), zap.String("session_id", rec.SessionID))
		return "", errors.Wrap(err, "orders: persist order")
	}
	return id, nil
}

func (s *Store) insert(ctx context.Context, rec Record, withIdempotency bool) (string, error) {
	cols := []string{"restaurant_id", "restaurant_name", "session_id", "items", "total_price", "total_cents", "status"}
	vals := []any{rec.RestaurantID, rec.RestaurantName, rec.SessionID, itemsJSON(rec.Items), rec.TotalPLN, rec.TotalCents, rec.Status}
	if rec.UserID != "" {
		cols = append(cols, "user_id")
		vals = append(vals, rec.UserID)
	}
	if withIdempotency {
		cols = append(cols, "idempotency_key")
		vals = append(vals, rec.IdempotencyKey)
	}

	qb := s.sq.Insert("orders").Columns(cols...).Values(vals...)
	if withIdempotency {
		qb = qb.Suffix("ON CONFLICT (idempotency_key) DO NOTHING RETURNING id")
	} else {
		qb = qb.Suffix("RETURNING id")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return "", errors.Wrap(err, "orders: build insert query")
	}

	var id string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if withIdempotency && err == pgx.ErrNoRows {
		return s.existingIDByKey(ctx, rec.IdempotencyKey)
	}
	return id, err
}

func (s *Store) existingIDByKey(ctx context.Context, key string) (string, error) {
	query, args, err := s.sq.Select("id").From("orders").Where(sq.Eq{"idempotency_key": key}).ToSql()
	if err != nil {
		return "", errors.Wrap(err, "orders: build lookup query")
	}
	var id string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id)
	return id, errors.Wrap(err, "orders: lookup existing order")
}

func itemsJSON(items []models.CartItem) string {
	var b strings.Builder
	b.WriteString("[")
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name":%q,"qty":%d,"price":%.2f}`, it.Name, it.Qty, it.Price)
	}
	b.WriteString("]")
	return b.String()
}

func isMissingColumn(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), column) && strings.Contains(err.Error(), "column")
}
