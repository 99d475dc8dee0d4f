package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokotani/internal/cart"
	"tokotani/internal/domain"
	custommiddleware "tokotani/internal/middleware"
	"tokotani/internal/payment"
	"tokotani/internal/repository"
	"tokotani/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.ID == user.ID {
			*existing = *user
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	found := *product
	return &found, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(m.products))
	for _, product := range m.products {
		p := *product
		products = append(products, &p)
	}
	return products, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	product, exists := m.products[id]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.Stock += delta
	return nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	return len(m.products), nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	found := *category
	return &found, nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := make([]*domain.Category, 0, len(m.categories))
	for _, category := range m.categories {
		c := *category
		categories = append(categories, &c)
	}
	return categories, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, exists := m.categories[category.ID]; !exists {
		return repository.ErrCategoryNotFound
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) Count(ctx context.Context) (int, error) {
	return len(m.categories), nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	found := *order
	return &found, nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		o := *order
		orders = append(orders, &o)
	}
	return orders, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	for _, order := range m.orders {
		if order.UserID != nil && *order.UserID == userID {
			o := *order
			orders = append(orders, &o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) Count(ctx context.Context) (int, error) {
	return len(m.orders), nil
}

// testEnv wires every handler onto one router the way the server does,
// backed by in-memory repositories and a stubbed payment gateway.
type testEnv struct {
	router       chi.Router
	userRepo     *mockUserRepository
	productRepo  *mockProductRepository
	categoryRepo *mockCategoryRepository
	orderRepo    *mockOrderRepository
	userService  service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()

	userRepo := newMockUserRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	productRepo := newMockProductRepository()
	categoryRepo := newMockCategoryRepository()
	orderRepo := newMockOrderRepository()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"token":        "snap-token",
			"redirect_url": "https://gateway.test/pay",
		})
	}))
	t.Cleanup(gateway.Close)

	carts := cart.NewManager()
	userService := service.NewUserService(userRepo, refreshTokenRepo, "test-secret")
	catalogService := service.NewCatalogService(productRepo, categoryRepo, nil, logger)
	cartService := service.NewCartService(carts, productRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, carts, payment.NewClient(gateway.URL, "test-key"), logger)
	statsService := service.NewStatsService(userRepo, productRepo, orderRepo, categoryRepo)

	authMiddleware := custommiddleware.AuthMiddleware("test-secret", logger)
	optionalAuthMiddleware := custommiddleware.OptionalAuthMiddleware("test-secret", logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	router := chi.NewRouter()
	NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	NewProductHandler(catalogService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	NewCategoryHandler(catalogService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	NewCartHandler(cartService, logger).RegisterRoutes(router)
	NewOrderHandler(orderService, logger).RegisterRoutes(router, optionalAuthMiddleware, authMiddleware, adminMiddleware)
	NewDashboardHandler(statsService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)

	return &testEnv{
		router:       router,
		userRepo:     userRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		userService:  userService,
	}
}

// do runs one request through the full router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// adminToken registers an admin account and returns a bearer token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	user, err := e.userService.Register(context.Background(), "admin@example.com", "AdminPass123", "Ani", "Wijaya")
	if err != nil {
		t.Fatalf("failed to register admin: %v", err)
	}
	user.Role = domain.RoleAdmin

	accessToken, _, _, err := e.userService.Login(context.Background(), "admin@example.com", "AdminPass123")
	if err != nil {
		t.Fatalf("failed to login admin: %v", err)
	}
	return accessToken
}

// seedProduct inserts a category and product directly into the mock
// repositories.
func (e *testEnv) seedProduct(t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      "Alat Pertanian",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, existing := range e.categoryRepo.categories {
		category = existing
		break
	}
	if _, exists := e.categoryRepo.categories[category.ID]; !exists {
		e.categoryRepo.categories[category.ID] = category
	}

	product := &domain.Product{
		ID:           uuid.New(),
		Name:         name,
		Description:  "Perlengkapan tani",
		Price:        price,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Stock:        stock,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	e.productRepo.products[product.ID] = product
	return product
}
