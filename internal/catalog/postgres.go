package catalog

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ndoemo/dialogbrain/internal/pkg/telemetry"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository is the concrete Postgres adapter for the catalog
// collaborator interface, built with squirrel the way the
// rest of this codebase builds its repository queries.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	sq     sq.StatementBuilderType
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRepository{
		pool:   pool,
		logger: logger,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRepository) SearchRestaurants(ctx context.Context, city string, cuisines []string) ([]RestaurantRow, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.SearchRestaurants")
	defer span.End()
	span.SetAttributes(attribute.String("city", city), attribute.Int("cuisine_count", len(cuisines)))

	qb := r.sq.Select("id", "name", "city", "cuisine", "lat", "lng", "is_open", "min_order_cents").
		From("restaurants").
		Where(sq.ILike{"city": "%" + city + "%"})

	if len(cuisines) == 1 {
		qb = qb.Where(sq.Eq{"cuisine": cuisines[0]})
	} else if len(cuisines) > 1 {
		qb = qb.Where(sq.Eq{"cuisine": cuisines})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "catalog: build search query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Warn("catalog: search restaurants failed", zap.Error(err))
		return nil, errors.Wrap(err, "catalog: query restaurants")
	}
	defer rows.Close()

	var out []RestaurantRow
	for rows.Next() {
		var row RestaurantRow
		var minOrderCents int64
		if err := rows.Scan(&row.ID, &row.Name, &row.City, &row.Cuisine, &row.Lat, &row.Lng, &row.IsOpen, &minOrderCents); err != nil {
			return nil, errors.Wrap(err, "catalog: scan restaurant row")
		}
		row.MinOrderPLN = float64(minOrderCents) / 100.0
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetMenu(ctx context.Context, restaurantID string, availableOnly bool) ([]MenuItemRow, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.GetMenu")
	defer span.End()
	span.SetAttributes(attribute.String("restaurant_id", restaurantID))

	qb := r.sq.Select("id", "restaurant_id", "name", "price_cents", "category", "available", "size").
		From("menu_items").
		Where(sq.Eq{"restaurant_id": restaurantID})
	if availableOnly {
		qb = qb.Where(sq.Eq{"available": true})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "catalog: build menu query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Warn("catalog: get menu failed", zap.Error(err), zap.String("restaurant_id", restaurantID))
		return nil, errors.Wrap(err, "catalog: query menu")
	}
	defer rows.Close()

	var out []MenuItemRow
	for rows.Next() {
		var row MenuItemRow
		var size *string
		if err := rows.Scan(&row.ID, &row.RestaurantID, &row.Name, &row.PriceCents, &row.Category, &row.Available, &size); err != nil {
			return nil, errors.Wrap(err, "catalog: scan menu row")
		}
		if size != nil {
			row.Size = *size
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
