package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-wms/internal/middleware"
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/bitfantasy/nimo-wms/internal/wms/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, 0, zap.NewNop())
	h := NewHandlers(services)

	r := testutil.SetupRouter()
	v1 := testutil.AuthGroup(r, "/api/v1")

	skus := v1.Group("/skus")
	{
		skus.GET("", h.SKU.List)
		skus.GET("/:id", h.SKU.Get)
		skus.GET("/:id/bom", h.BOM.GetBOM)
		skus.GET("/:id/bom/explosion", h.BOM.Explode)

		admin := skus.Group("", middleware.RequireRole("wms_catalog"))
		{
			admin.POST("", h.SKU.Create)
			admin.PUT("/:id", h.SKU.Update)
			admin.DELETE("/:id", h.SKU.Deactivate)
			admin.PUT("/:id/bom", h.BOM.SetBOM)
		}
	}

	inventory := v1.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.GET("/:skuId", h.Inventory.GetBySKU)
		inventory.GET("/:skuId/movements", h.Inventory.ListMovements)
		inventory.PUT("/:skuId/:state", h.Inventory.SetQuantity)
		inventory.POST("/batch", h.Inventory.BatchSet)
	}

	reports := v1.Group("/reports")
	{
		reports.GET("/in-assembly", h.Report.InAssembly)
	}

	return r, db
}

func TestSetQuantityEndpoint(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	blade := testutil.SeedSKU(t, db, "API-BLADE", entity.KindRaw)
	ferrule := testutil.SeedSKU(t, db, "API-FERRULE", entity.KindAssembly)
	testutil.SeedComponent(t, db, ferrule, blade, 2, 0)
	testutil.SeedLedger(t, db, blade, entity.StateRaw, 1000)

	path := fmt.Sprintf("/api/v1/inventory/%s/ASSEMBLED", ferrule.ID)
	w := testutil.DoRequest(r, http.MethodPut, path, gin.H{"quantity": 10}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Errorf("Expected code 0, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	if data["quantity"].(float64) != 10 || data["delta"].(float64) != 10 {
		t.Errorf("Unexpected result payload: %v", data)
	}
	report := data["report"].(map[string]interface{})
	deductions := report["deductions"].([]interface{})
	if len(deductions) != 1 {
		t.Fatalf("Expected 1 deduction, got %d", len(deductions))
	}
	d := deductions[0].(map[string]interface{})
	if d["required"].(float64) != 20 || d["remaining"].(float64) != 980 {
		t.Errorf("Unexpected deduction: %v", d)
	}
}

func TestSetQuantityEndpointPartialFailureCode(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	bad := testutil.SeedSKU(t, db, "API-BAD-COMP", entity.KindRaw)
	parent := testutil.SeedSKU(t, db, "API-PF-PARENT", entity.KindAssembly)
	testutil.SeedComponent(t, db, parent, bad, 3, 0)
	if err := db.Model(&entity.SKU{}).Where("id = ?", bad.ID).Update("active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate component: %v", err)
	}

	path := fmt.Sprintf("/api/v1/inventory/%s/ASSEMBLED", parent.ID)
	w := testutil.DoRequest(r, http.MethodPut, path, gin.H{"quantity": 5}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Partial failure is still HTTP 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 20001 {
		t.Errorf("Expected business code 20001, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	report := data["report"].(map[string]interface{})
	failures := report["failures"].([]interface{})
	if len(failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failures))
	}
	f := failures[0].(map[string]interface{})
	if f["component_code"].(string) != "API-BAD-COMP" || f["required"].(float64) != 15 {
		t.Errorf("Failure must identify component and shortfall: %v", f)
	}
}

func TestSetQuantityEndpointRejectsUnknownState(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	sku := testutil.SeedSKU(t, db, "API-STATE", entity.KindRaw)
	path := fmt.Sprintf("/api/v1/inventory/%s/MELTED", sku.ID)
	w := testutil.DoRequest(r, http.MethodPut, path, gin.H{"quantity": 1}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown state, got %d", w.Code)
	}
}

func TestInventoryEndpointsRequireAuth(t *testing.T) {
	r, _ := setupTestAPI(t)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/inventory", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestCatalogWriteRequiresRole(t *testing.T) {
	r, _ := setupTestAPI(t)

	// 无目录管理角色的用户：读可以，写403
	reader := testutil.GenerateTestToken("reader-001", "Reader", []string{"wms_viewer"})

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/skus", nil, reader)
	if w.Code != http.StatusOK {
		t.Errorf("Read should be allowed, got %d", w.Code)
	}

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/skus", gin.H{
		"code": "ROLE-TEST", "name": "x", "kind": "RAW",
	}, reader)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for catalog write without role, got %d", w.Code)
	}

	admin := testutil.DefaultTestToken()
	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/skus", gin.H{
		"code": "ROLE-TEST", "name": "x", "kind": "RAW",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestExplosionEndpoint(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	c := testutil.SeedSKU(t, db, "API-EXP-C", entity.KindRaw)
	b := testutil.SeedSKU(t, db, "API-EXP-B", entity.KindAssembly)
	a := testutil.SeedSKU(t, db, "API-EXP-A", entity.KindCompleted)
	testutil.SeedComponent(t, db, a, b, 2, 0)
	testutil.SeedComponent(t, db, b, c, 3, 0)

	path := fmt.Sprintf("/api/v1/skus/%s/bom/explosion?quantity=5", a.ID)
	w := testutil.DoRequest(r, http.MethodGet, path, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	requirements := data["requirements"].(map[string]interface{})
	if requirements[c.ID].(float64) != 30 {
		t.Errorf("Expected leaf requirement 30, got %v", requirements)
	}
}

func TestSetBOMEndpointRejectsCycle(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	a := testutil.SeedSKU(t, db, "API-CYC-A", entity.KindAssembly)
	b := testutil.SeedSKU(t, db, "API-CYC-B", entity.KindAssembly)
	testutil.SeedComponent(t, db, a, b, 1, 0)

	path := fmt.Sprintf("/api/v1/skus/%s/bom", b.ID)
	w := testutil.DoRequest(r, http.MethodPut, path, gin.H{
		"components": []gin.H{{"component_sku_id": a.ID, "quantity_per_unit": 1}},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for cyclic BOM, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInAssemblyEndpoint(t *testing.T) {
	r, db := setupTestAPI(t)
	token := testutil.DefaultTestToken()

	stud := testutil.SeedSKU(t, db, "API-STUD", entity.KindRaw)
	beast := testutil.SeedSKU(t, db, "API-BEAST", entity.KindAssembly)
	pack := testutil.SeedSKU(t, db, "API-PACK", entity.KindCompleted)
	testutil.SeedComponent(t, db, pack, beast, 2, 0)
	testutil.SeedComponent(t, db, beast, stud, 1, 0)
	testutil.SeedLedger(t, db, pack, entity.StateCompleted, 5)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/in-assembly", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["sku_code"].(string) != "API-STUD" || item["quantity"].(float64) != 10 {
		t.Errorf("Unexpected rollup item: %v", item)
	}
}
