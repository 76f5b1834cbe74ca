package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/middleware"
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "nimo-wms-jwt-secret-key-2025"

// SetupTestDB creates an isolated in-memory sqlite database per test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.SKU{},
		&entity.BOMComponent{},
		&entity.LedgerEntry{},
		&entity.StockMovement{},
		&entity.PurchaseOrder{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"roles": roles,
		"perms": []string{"*"},
		"iss":   "nimo-wms",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin", []string{"wms_admin"})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedSKU creates a SKU row directly in the database
func SeedSKU(t *testing.T, db *gorm.DB, code string, kind entity.Kind) *entity.SKU {
	t.Helper()
	sku := &entity.SKU{
		ID:        uuid.New().String()[:32],
		Code:      code,
		Name:      "Test " + code,
		Kind:      kind,
		Active:    true,
		CreatedBy: "test-user-001",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(sku).Error; err != nil {
		t.Fatalf("Failed to seed SKU %s: %v", code, err)
	}
	return sku
}

// SeedComponent creates a BOM edge directly in the database
func SeedComponent(t *testing.T, db *gorm.DB, parent, component *entity.SKU, perUnit int64, sortOrder int) *entity.BOMComponent {
	t.Helper()
	comp := &entity.BOMComponent{
		ID:              uuid.New().String()[:32],
		ParentSKUID:     parent.ID,
		ComponentSKUID:  component.ID,
		QuantityPerUnit: perUnit,
		SortOrder:       sortOrder,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(comp).Error; err != nil {
		t.Fatalf("Failed to seed BOM edge %s -> %s: %v", parent.Code, component.Code, err)
	}
	return comp
}

// SeedLedger creates a ledger row directly in the database
func SeedLedger(t *testing.T, db *gorm.DB, sku *entity.SKU, state entity.StockState, quantity int64) *entity.LedgerEntry {
	t.Helper()
	entry := &entity.LedgerEntry{
		ID:        uuid.New().String()[:32],
		SKUID:     sku.ID,
		State:     state,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to seed ledger %s/%s: %v", sku.Code, state, err)
	}
	return entry
}
