package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

var orderCols = []string{
	"id", "user_id", "status", "shipping_address", "items_price", "tax_price",
	"shipping_price", "total_price", "paid_at", "delivered_at",
	"created_at", "updated_at",
}

var orderColsWithCount = append(append([]string{}, orderCols...), "total_count")

var orderItemCols = []string{
	"id", "order_id", "product_id", "name", "price", "quantity", "image_url",
}

func sampleOrder() domain.Order {
	paidAt := now.Add(-time.Hour)
	return domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusProcessing,
		ShippingAddress: domain.Address{
			Street:     "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
			Phone:      "555-0100",
		},
		Items: []domain.OrderItem{
			{
				ID:        "item-1",
				OrderID:   "order-1",
				ProductID: "prod-1",
				Name:      "SanDisk Ultra 128GB",
				Price:     4599,
				Quantity:  2,
				ImageURL:  "https://cdn.example.com/prod-1.jpg",
			},
		},
		ItemsPrice:    9198,
		TaxPrice:      920,
		ShippingPrice: 500,
		TotalPrice:    10618,
		PaidAt:        &paidAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func orderRow(o domain.Order) []any {
	shippingJSON, _ := json.Marshal(o.ShippingAddress)
	return []any{
		o.ID, o.UserID, o.Status, shippingJSON, o.ItemsPrice, o.TaxPrice,
		o.ShippingPrice, o.TotalPrice, o.PaidAt, o.DeliveredAt,
		o.CreatedAt, o.UpdatedAt,
	}
}

func TestOrderRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	shippingJSON, _ := json.Marshal(o.ShippingAddress)
	item := o.Items[0]

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status, shippingJSON, o.ItemsPrice, o.TaxPrice,
			o.ShippingPrice, o.TotalPrice, o.PaidAt, o.DeliveredAt,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(item.ID, item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity, item.ImageURL).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	shippingJSON, _ := json.Marshal(o.ShippingAddress)
	itemsJSON, _ := json.Marshal(o.Items)

	cols := append(append([]string{}, orderCols...), "items")
	row := []any{
		o.ID, o.UserID, o.Status, shippingJSON, o.ItemsPrice, o.TaxPrice,
		o.ShippingPrice, o.TotalPrice, o.PaidAt, o.DeliveredAt,
		o.CreatedAt, o.UpdatedAt, itemsJSON,
	}

	mock.ExpectQuery("SELECT .+ FROM orders o").
		WithArgs(o.ID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(row...))

	result, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, result.ID)
	assert.Equal(t, o.ShippingAddress, result.ShippingAddress)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, o.Items[0].ProductID, result.Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM orders o").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_ByUser(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	row := append(orderRow(o), 1) // total_count = 1
	item := o.Items[0]

	userID := "user-1"
	filter := repository.OrderFilter{UserID: &userID, Page: 1, PerPage: 20}

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(userID, 20, 0).
		WillReturnRows(pgxmock.NewRows(orderColsWithCount).AddRow(row...))

	mock.ExpectQuery("SELECT .+ FROM order_items").
		WithArgs([]string{o.ID}).
		WillReturnRows(
			pgxmock.NewRows(orderItemCols).
				AddRow(item.ID, item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity, item.ImageURL),
		)

	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.Len(t, orders[0].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	filter := repository.OrderFilter{Page: 1, PerPage: 20}

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(orderColsWithCount))

	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, []domain.Order{}, orders)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_TotalRevenue(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(125000)))

	total, err := repo.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(125000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusShipped, pgxmock.AnyArg(), "order-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "order-1", domain.OrderStatusShipped)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusShipped, pgxmock.AnyArg(), "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing-id", domain.OrderStatusShipped)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Deliver_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	deliveredAt := now.Add(time.Hour)
	item := o.Items[0]

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(item.Quantity, pgxmock.AnyArg(), item.ProductID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.OrderStatusDelivered, deliveredAt, pgxmock.AnyArg(), o.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Deliver(context.Background(), &o, deliveredAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Deliver_InsufficientStock(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	deliveredAt := now.Add(time.Hour)
	item := o.Items[0]

	// Conditional decrement matches zero rows when stock < quantity; the
	// whole delivery rolls back, order status included.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(item.Quantity, pgxmock.AnyArg(), item.ProductID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Deliver(context.Background(), &o, deliveredAt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Delete_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("DELETE FROM orders WHERE").
		WithArgs("order-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "order-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
