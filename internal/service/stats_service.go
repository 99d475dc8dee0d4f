package service

import (
	"context"
	"fmt"

	"tokotani/internal/repository"
)

// DashboardStats is the summary card row at the top of the admin dashboard
type DashboardStats struct {
	Users      int `json:"users"`
	Products   int `json:"products"`
	Orders     int `json:"orders"`
	Categories int `json:"categories"`
}

// StatsService defines the interface for dashboard statistics
type StatsService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	categoryRepo repository.CategoryRepository
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	categoryRepo repository.CategoryRepository,
) StatsService {
	return &statsService{
		userRepo:     userRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *statsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	categories, err := s.categoryRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	return &DashboardStats{
		Users:      users,
		Products:   products,
		Orders:     orders,
		Categories: categories,
	}, nil
}
