package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"katalog/internal/handlers"
	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
)

// setupApp builds the full stack against a fresh in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.User{},
	))

	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	txManager := repositories.NewGormTxManager(db)

	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	productService := services.NewProductService(productRepo, categoryRepo)
	orderService := services.NewOrderService(txManager, orderRepo, productRepo, nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(protected)
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func loginTestUser(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "tester",
		"email":    "tester@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "tester",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func createTestCatalog(t *testing.T, app *fiber.App, token, productName, price string, qty int) uint {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/categories/", token, fiber.Map{
		"name": "Electronics",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	categoryID := uint(body["id"].(float64))

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/products/", token, fiber.Map{
		"category_id":   categoryID,
		"sku":           "SKU-" + productName,
		"name":          productName,
		"price":         price,
		"available_qty": qty,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return uint(body["id"].(float64))
}

func TestRoutesRequireAuthentication(t *testing.T) {
	app := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/products/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", fiber.Map{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)
	productID := createTestCatalog(t, app, token, "Laptop", "1200.00", 10)

	resp, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Laptop", body["name"])
	assert.EqualValues(t, 10, body["available_qty"])

	// Duplicate SKU conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/", token, fiber.Map{
		"category_id":   body["category_id"],
		"sku":           "SKU-Laptop",
		"name":          "Laptop Pro",
		"price":         "1500.00",
		"available_qty": 5,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Soft delete hides the product; restore brings it back.
	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/restore", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderPlacementScenario(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)
	productID := createTestCatalog(t, app, token, "Widget", "10.00", 5)

	// Place an order for 3 units: total 30.00, availability drops to 2.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id":  1,
		"products": []fiber.Map{{"product_id": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "30.00", body["total"])
	assert.Equal(t, "pending", body["status"])
	orderID := uint(body["id"].(float64))

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Widget", item["product_name"])
	assert.Equal(t, "10.00", item["unit_price"])
	assert.Equal(t, "30.00", item["subtotal"])
	assert.EqualValues(t, 3, item["quantity"])

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["available_qty"])

	// A second order for 3 units fails: only 2 left, availability unchanged.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id":  1,
		"products": []fiber.Map{{"product_id": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.EqualValues(t, 2, body["available"])
	assert.EqualValues(t, 3, body["requested"])

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["available_qty"])

	// Re-fetching the order returns identical total, status and lines.
	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "30.00", body["total"])
	assert.Equal(t, "pending", body["status"])
	assert.Len(t, body["items"].([]interface{}), 1)
}

func TestOrderPlacementRollsBackOnUnknownProduct(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)
	productID := createTestCatalog(t, app, token, "Widget", "10.00", 5)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id": 1,
		"products": []fiber.Map{
			{"product_id": productID, "quantity": 2},
			{"product_id": 9999, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The satisfiable first line must not leave any trace.
	resp, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["available_qty"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["total"])
	assert.Empty(t, body["data"])
}

func TestOrderStatusUpdate(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)
	productID := createTestCatalog(t, app, token, "Widget", "10.00", 5)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id":  1,
		"products": []fiber.Map{{"product_id": productID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := uint(body["id"].(float64))

	resp, _ = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID), token, fiber.Map{
		"status": "delivered",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "delivered", body["status"])

	resp, _ = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID), token, fiber.Map{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCategoryDeleteCascadesOverHTTP(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/categories/", token, fiber.Map{
		"name": "Electronics",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	categoryID := uint(body["id"].(float64))

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/products/", token, fiber.Map{
		"category_id":   categoryID,
		"sku":           "SKU-1",
		"name":          "Laptop",
		"price":         "1200.00",
		"available_qty": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := uint(body["id"].(float64))

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", categoryID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/categories/deleted", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	// Empty product list.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id":  1,
		"products": []fiber.Map{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Non-positive quantity.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"user_id":  1,
		"products": []fiber.Map{{"product_id": 1, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing user id.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, fiber.Map{
		"products": []fiber.Map{{"product_id": 1, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
