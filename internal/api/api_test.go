package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"forchetta/internal/api"
	"forchetta/internal/auth"
	"forchetta/internal/database"
	"forchetta/internal/models"
	"forchetta/internal/monitoring"
	"forchetta/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *api.API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	require.NoError(t, database.InitDB("sqlite3", filepath.Join(t.TempDir(), "api.db")))
	database.Migrate()
	t.Cleanup(func() { database.CloseDB() })

	orders := database.NewOrders(database.GetDB(), true)
	restaurants := database.NewRestaurants(database.GetDB())
	svc := queue.NewService(orders, restaurants)
	manager := auth.NewManager("test-secret", time.Hour)

	return api.New(svc, orders, restaurants, manager, monitoring.New())
}

func do(t *testing.T, a *api.API, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func register(t *testing.T, a *api.API, name, email, role string) string {
	t.Helper()
	w := do(t, a, "POST", "/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "longenough",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

// setupRestaurant registers an owner, their restaurant, and one dish,
// returning the owner token, restaurant id, and menu item id
func setupRestaurant(t *testing.T, a *api.API) (string, uint, uint) {
	t.Helper()
	owner := register(t, a, "Olive Owner", "owner@test.local", "owner")

	w := do(t, a, "POST", "/api/v1/restaurants", owner, gin.H{"name": "Trattoria", "cuisine": "italian"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	restID := uint(decode(t, w)["ID"].(float64))

	w = do(t, a, "POST", fmt.Sprintf("/api/v1/restaurants/%d/menu", restID), owner, gin.H{
		"name":         "Margherita",
		"price":        850,
		"prep_minutes": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := uint(decode(t, w)["ID"].(float64))

	return owner, restID, itemID
}

func TestHealth(t *testing.T) {
	a := newTestServer(t)
	w := do(t, a, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestServer(t)
	register(t, a, "Cara", "cara@test.local", "customer")

	w := do(t, a, "POST", "/auth/login", "", gin.H{"email": "cara@test.local", "password": "longenough"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	w = do(t, a, "POST", "/auth/login", "", gin.H{"email": "cara@test.local", "password": "wrongwrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Duplicate email rejected.
	w = do(t, a, "POST", "/auth/register", "", gin.H{
		"name": "Other", "email": "cara@test.local", "password": "longenough", "role": "customer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthRequired(t *testing.T) {
	a := newTestServer(t)
	w := do(t, a, "GET", "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleEnforcement(t *testing.T) {
	a := newTestServer(t)
	customer := register(t, a, "Cara", "cara@test.local", "customer")

	w := do(t, a, "POST", "/api/v1/queue/advance", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	owner := register(t, a, "Olive", "owner@test.local", "owner")
	w = do(t, a, "POST", "/api/v1/orders", owner, gin.H{"restaurant_id": 1, "menu_item_id": 1, "amount": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newTestServer(t)
	owner, restID, itemID := setupRestaurant(t, a)
	customer := register(t, a, "Cara", "cara@test.local", "customer")

	// Checkout: price is computed server-side, 2 x 850.
	w := do(t, a, "POST", "/api/v1/orders", customer, gin.H{
		"restaurant_id": restID, "menu_item_id": itemID, "amount": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	orderID := uint(created["ID"].(float64))
	assert.Equal(t, "received", created["Status"])
	assert.Equal(t, 1700.0, created["Price"])

	// Owner sees it queued with the full estimate.
	w = do(t, a, "GET", "/api/v1/queue", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot queue.QueueSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, 20.0, snapshot.Entries[0].EstimateMinutes)

	// Customer polls the estimate.
	w = do(t, a, "GET", fmt.Sprintf("/api/v1/orders/%d/estimate", orderID), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20.0, decode(t, w)["estimate_minutes"])

	// Owner advances twice: preparing, then ready.
	w = do(t, a, "POST", "/api/v1/queue/advance", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preparing", decode(t, w)["Status"])

	w = do(t, a, "POST", "/api/v1/queue/advance", owner, gin.H{"order_id": orderID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["Status"])

	// Out of the queue now; a further advancement is rejected.
	w = do(t, a, "POST", "/api/v1/queue/advance", owner, gin.H{"order_id": orderID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, a, "GET", fmt.Sprintf("/api/v1/orders/%d/estimate", orderID), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["estimate_minutes"])

	// Pickup completes the order; a second confirmation is rejected.
	w = do(t, a, "POST", fmt.Sprintf("/api/v1/orders/%d/pickup", orderID), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["Status"])

	w = do(t, a, "POST", fmt.Sprintf("/api/v1/orders/%d/pickup", orderID), customer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdvanceEmptyQueue(t *testing.T) {
	a := newTestServer(t)
	owner, _, _ := setupRestaurant(t, a)

	w := do(t, a, "POST", "/api/v1/queue/advance", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["message"], "empty")
}

func TestPlaceOrderValidation(t *testing.T) {
	a := newTestServer(t)
	_, restID, itemID := setupRestaurant(t, a)
	customer := register(t, a, "Cara", "cara@test.local", "customer")

	w := do(t, a, "POST", "/api/v1/orders", customer, gin.H{
		"restaurant_id": restID, "menu_item_id": itemID, "amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, a, "POST", "/api/v1/orders", customer, gin.H{
		"restaurant_id": restID + 99, "menu_item_id": itemID, "amount": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrdersAreCustomerScoped(t *testing.T) {
	a := newTestServer(t)
	_, restID, itemID := setupRestaurant(t, a)
	cara := register(t, a, "Cara", "cara@test.local", "customer")
	rival := register(t, a, "Rex", "rex@test.local", "customer")

	w := do(t, a, "POST", "/api/v1/orders", cara, gin.H{
		"restaurant_id": restID, "menu_item_id": itemID, "amount": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := uint(decode(t, w)["ID"].(float64))

	w = do(t, a, "GET", fmt.Sprintf("/api/v1/orders/%d", orderID), rival, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, a, "GET", fmt.Sprintf("/api/v1/orders/%d/estimate", orderID), rival, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestaurantSearchAndPagination(t *testing.T) {
	a := newTestServer(t)
	setupRestaurant(t, a)

	w := do(t, a, "GET", "/api/v1/restaurants?q=Tratt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, 1.0, out["total"])

	w = do(t, a, "GET", "/api/v1/restaurants?q=nomatch", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["total"])
}

func TestCardsStoredMasked(t *testing.T) {
	a := newTestServer(t)
	customer := register(t, a, "Cara", "cara@test.local", "customer")

	w := do(t, a, "POST", "/api/v1/cards", customer, gin.H{
		"holder":    "Cara C",
		"number":    "4242424242424242",
		"exp_month": 12,
		"exp_year":  2030,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	card := decode(t, w)
	assert.Equal(t, "4242", card["LastFour"])
	assert.NotContains(t, w.Body.String(), "4242424242424242")

	w = do(t, a, "GET", "/api/v1/cards", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMenuDishUniquePerRestaurant(t *testing.T) {
	a := newTestServer(t)
	owner, restID, _ := setupRestaurant(t, a)

	w := do(t, a, "POST", fmt.Sprintf("/api/v1/restaurants/%d/menu", restID), owner, gin.H{
		"name": "Margherita", "price": 900, "prep_minutes": 12,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQueueLiveStreamsSnapshot(t *testing.T) {
	a := newTestServer(t)
	owner, restID, itemID := setupRestaurant(t, a)
	customer := register(t, a, "Cara", "cara@test.local", "customer")

	w := do(t, a, "POST", "/api/v1/orders", customer, gin.H{
		"restaurant_id": restID, "menu_item_id": itemID, "amount": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	server := httptest.NewServer(a.Router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/queue/live?token=" + owner
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snapshot queue.QueueSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, 20.0, snapshot.Entries[0].EstimateMinutes)
}

func TestOwnerWithoutRestaurantCanDeactivate(t *testing.T) {
	a := newTestServer(t)
	owner := register(t, a, "Olive", "olive@test.local", "owner")

	w := do(t, a, "DELETE", "/api/v1/profile", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, a, "POST", "/auth/login", "", gin.H{
		"email": "olive@test.local", "password": "longenough",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnerDeactivationFailsClosedOnStoreError(t *testing.T) {
	a := newTestServer(t)
	owner, _, _ := setupRestaurant(t, a)

	// Break the restaurant lookup so it fails with something other than
	// a missing record. The account must stay active.
	require.NoError(t, database.GetDB().DropTable(&models.Restaurant{}).Error)

	w := do(t, a, "DELETE", "/api/v1/profile", owner, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	w = do(t, a, "POST", "/auth/login", "", gin.H{
		"email": "owner@test.local", "password": "longenough",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
