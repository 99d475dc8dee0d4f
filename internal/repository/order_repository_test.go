package repository

import (
	"context"
	"testing"
	"time"

	"tokotani/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, userID *uuid.UUID) *domain.Order {
	t.Helper()
	orderID := uuid.New()
	order := &domain.Order{
		ID:           orderID,
		UserID:       userID,
		FirstName:    "Rina",
		LastName:     "Wulandari",
		Email:        "rina@toko.test",
		Phone:        "081234567890",
		Address:      "Jl. Merdeka No. 10",
		City:         "Bandung",
		Province:     "Jawa Barat",
		PostalCode:   "40111",
		Status:       domain.OrderStatusPending,
		Subtotal:     150000,
		ShippingCost: 25000,
		Total:        175000,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Items: []domain.OrderItem{
			{ID: uuid.New(), OrderID: orderID, Name: "Benih Padi", Price: 50000, Quantity: 3},
		},
	}
	require.NoError(t, NewOrderRepository(testDB).Create(context.Background(), order))
	t.Cleanup(func() { _, _ = testDB.Exec("DELETE FROM orders WHERE id = $1", orderID) })
	return order
}

func TestOrderCreatePersistsItemSnapshots(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := seedOrder(t, nil)

	retrieved, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.Total, retrieved.Total)
	require.Len(t, retrieved.Items, 1)
	require.Equal(t, "Benih Padi", retrieved.Items[0].Name)
	require.Equal(t, int64(50000), retrieved.Items[0].Price)
	require.Equal(t, 3, retrieved.Items[0].Quantity)
}

func TestOrderStatusTransitions(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := seedOrder(t, nil)

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid))

	retrieved, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, retrieved.Status)

	require.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.OrderStatusPaid), ErrOrderNotFound)
}

func TestOrderListByUserScopesToOwner(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	userRepo := NewUserRepository(testDB)
	ctx := context.Background()

	owner := &domain.User{
		ID:           uuid.New(),
		Email:        "owner@toko.test",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, userRepo.Create(ctx, owner))
	t.Cleanup(func() { _, _ = testDB.Exec("DELETE FROM users WHERE id = $1", owner.ID) })

	mine := seedOrder(t, &owner.ID)
	seedOrder(t, nil)

	orders, err := orderRepo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, mine.ID, orders[0].ID)
}

func TestOrderFindByIDNotFound(t *testing.T) {
	repo := NewOrderRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCategoryDuplicateNameRejected(t *testing.T) {
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := seedCategory(t)

	dup := &domain.Category{
		ID:        uuid.New(),
		Name:      category.Name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.ErrorIs(t, repo.Create(ctx, dup), ErrCategoryAlreadyExists)
}
