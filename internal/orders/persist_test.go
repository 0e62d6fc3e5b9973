package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo/dialogbrain/internal/models"
)

func TestIdempotencyKeyStableUnderReorder(t *testing.T) {
	items := []models.CartItem{{Name: "Margherita", Qty: 1, Price: 25}, {Name: "Cola", Qty: 2, Price: 6}}
	reordered := []models.CartItem{{Name: "Cola", Qty: 2, Price: 6}, {Name: "Margherita", Qty: 1, Price: 25}}
	assert.Equal(t, IdempotencyKey("sess_1", items), IdempotencyKey("sess_1", reordered))
}

func TestIdempotencyKeyDiffersBySession(t *testing.T) {
	items := []models.CartItem{{Name: "Margherita", Qty: 1, Price: 25}}
	assert.NotEqual(t, IdempotencyKey("sess_1", items), IdempotencyKey("sess_2", items))
}

func TestPersistOrderToDBInsertsNewRow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("order-1"))

	store := NewStore(mockPool, nil)
	rec := Record{
		RestaurantID:   "r1",
		RestaurantName: "Pizzeria Roma",
		SessionID:      "sess_1",
		IdempotencyKey: "abc",
		Items:          []models.CartItem{{Name: "Margherita", Qty: 1, Price: 25}},
		TotalPLN:       25,
		TotalCents:     2500,
		Status:         "confirmed",
	}

	id, err := store.PersistOrderToDB(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

// TestPersistOrderToDBRetriesWithoutIdempotencyColumn exercises the rule
// "if the DB rejects the idempotency_key column, retry without it once":
// the first insert attempt must carry the ON CONFLICT clause, the retry must
// not (a plain INSERT ... RETURNING id), since a missing column means the
// conflict target can't exist either.
func TestPersistOrderToDBRetriesWithoutIdempotencyColumn(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New(`pq: column "idempotency_key" of relation "orders" does not exist`))
	mockPool.ExpectQuery("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("order-2"))

	store := NewStore(mockPool, nil)
	rec := Record{
		RestaurantID:   "r1",
		RestaurantName: "Pizzeria Roma",
		SessionID:      "sess_2",
		IdempotencyKey: "def",
		Items:          []models.CartItem{{Name: "Margherita", Qty: 1, Price: 25}},
		TotalPLN:       25,
		TotalCents:     2500,
		Status:         "confirmed",
	}

	id, err := store.PersistOrderToDB(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "order-2", id)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
