package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewServices(repos, nil, 0, zap.NewNop()), db
}

func TestExplodeRawBaseCase(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	raw := testutil.SeedSKU(t, db, "STUD-100G", entity.KindRaw)

	result, err := svc.BOM.Explode(ctx, raw.ID, 7)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result) != 1 || result[raw.ID] != 7 {
		t.Errorf("Expected {%s: 7}, got %v", raw.ID, result)
	}
}

func TestExplodeMultiplicativeChain(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	// A需要2×B，B需要3×C（C为原材料）：explode(A,5) = {C:30}
	c := testutil.SeedSKU(t, db, "PART-C", entity.KindRaw)
	b := testutil.SeedSKU(t, db, "PART-B", entity.KindAssembly)
	a := testutil.SeedSKU(t, db, "PART-A", entity.KindCompleted)
	testutil.SeedComponent(t, db, a, b, 2, 0)
	testutil.SeedComponent(t, db, b, c, 3, 0)

	result, err := svc.BOM.Explode(ctx, a.ID, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if result[c.ID] != 30 {
		t.Errorf("Expected C=30, got %d", result[c.ID])
	}
	if len(result) != 1 {
		t.Errorf("Expected only raw leaves in result, got %v", result)
	}
}

func TestExplodeLinearity(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	rawA := testutil.SeedSKU(t, db, "RAW-A", entity.KindRaw)
	rawB := testutil.SeedSKU(t, db, "RAW-B", entity.KindRaw)
	asm := testutil.SeedSKU(t, db, "ASM-1", entity.KindAssembly)
	testutil.SeedComponent(t, db, asm, rawA, 2, 0)
	testutil.SeedComponent(t, db, asm, rawB, 5, 1)

	q1, err := svc.BOM.Explode(ctx, asm.ID, 3)
	if err != nil {
		t.Fatalf("Explode(3) failed: %v", err)
	}
	q2, err := svc.BOM.Explode(ctx, asm.ID, 4)
	if err != nil {
		t.Fatalf("Explode(4) failed: %v", err)
	}
	sum, err := svc.BOM.Explode(ctx, asm.ID, 7)
	if err != nil {
		t.Fatalf("Explode(7) failed: %v", err)
	}

	for id, qty := range sum {
		if q1[id]+q2[id] != qty {
			t.Errorf("Linearity violated for %s: %d + %d != %d", id, q1[id], q2[id], qty)
		}
	}
}

func TestExplodeUnknownSKU(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.BOM.Explode(context.Background(), "no-such-sku", 1)
	if !errors.Is(err, ErrSKUNotFound) {
		t.Errorf("Expected ErrSKUNotFound, got %v", err)
	}
}

func TestExplodeDanglingEdgeSurfaces(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	// 悬空BOM边必须报错，不能静默少算
	asm := testutil.SeedSKU(t, db, "ASM-DANGLING", entity.KindAssembly)
	ghost := testutil.SeedSKU(t, db, "GHOST", entity.KindRaw)
	testutil.SeedComponent(t, db, asm, ghost, 1, 0)
	if err := db.Delete(&entity.SKU{}, "id = ?", ghost.ID).Error; err != nil {
		t.Fatalf("Failed to delete ghost SKU: %v", err)
	}

	_, err := svc.BOM.Explode(ctx, asm.ID, 1)
	if !errors.Is(err, ErrSKUNotFound) {
		t.Errorf("Expected ErrSKUNotFound for dangling edge, got %v", err)
	}
}

func TestExplodeIncludesDeactivatedComponents(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	// 停用的组件仍参与展开：历史BOM的读路径必须保持可用，
	// 写路径（扣料）才拒绝停用组件
	raw := testutil.SeedSKU(t, db, "RETIRED-RAW", entity.KindRaw)
	asm := testutil.SeedSKU(t, db, "ASM-RETIRED", entity.KindAssembly)
	testutil.SeedComponent(t, db, asm, raw, 4, 0)
	if err := db.Model(&entity.SKU{}).Where("id = ?", raw.ID).Update("active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate component: %v", err)
	}

	result, err := svc.BOM.Explode(ctx, asm.ID, 2)
	if err != nil {
		t.Fatalf("Explode over a deactivated component must succeed: %v", err)
	}
	if result[raw.ID] != 8 {
		t.Errorf("Expected deactivated raw counted at 8, got %v", result)
	}
}

func TestExplodeCyclicGraphBounded(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	// 绕过SetBOM校验直接写出环，展开必须以ErrCyclicBOM终止
	a := testutil.SeedSKU(t, db, "CYC-A", entity.KindAssembly)
	b := testutil.SeedSKU(t, db, "CYC-B", entity.KindAssembly)
	testutil.SeedComponent(t, db, a, b, 1, 0)
	testutil.SeedComponent(t, db, b, a, 1, 0)

	_, err := svc.BOM.Explode(ctx, a.ID, 1)
	if !errors.Is(err, ErrCyclicBOM) {
		t.Errorf("Expected ErrCyclicBOM, got %v", err)
	}
}

func TestSetBOMRejectsRawParent(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	raw := testutil.SeedSKU(t, db, "RAW-PARENT", entity.KindRaw)
	comp := testutil.SeedSKU(t, db, "COMP-1", entity.KindRaw)

	_, err := svc.BOM.SetBOM(ctx, raw.ID, []ComponentInput{
		{ComponentSKUID: comp.ID, QuantityPerUnit: 1},
	})
	if !errors.Is(err, ErrRawHasBOM) {
		t.Errorf("Expected ErrRawHasBOM, got %v", err)
	}

	// 原材料清空BOM（空集）是合法的
	if _, err := svc.BOM.SetBOM(ctx, raw.ID, nil); err != nil {
		t.Errorf("Empty BOM on raw SKU should be allowed, got %v", err)
	}
}

func TestSetBOMRejectsSelfReference(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	asm := testutil.SeedSKU(t, db, "SELF-REF", entity.KindAssembly)
	_, err := svc.BOM.SetBOM(ctx, asm.ID, []ComponentInput{
		{ComponentSKUID: asm.ID, QuantityPerUnit: 1},
	})
	if !errors.Is(err, ErrSelfReference) {
		t.Errorf("Expected ErrSelfReference, got %v", err)
	}
}

func TestSetBOMRejectsNonPositiveQuantity(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	asm := testutil.SeedSKU(t, db, "ASM-QTY", entity.KindAssembly)
	raw := testutil.SeedSKU(t, db, "RAW-QTY", entity.KindRaw)

	for _, qty := range []int64{0, -3} {
		_, err := svc.BOM.SetBOM(ctx, asm.ID, []ComponentInput{
			{ComponentSKUID: raw.ID, QuantityPerUnit: qty},
		})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Expected ErrInvalidQuantity for qty=%d, got %v", qty, err)
		}
	}
}

func TestSetBOMDuplicatePairOverwrites(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	asm := testutil.SeedSKU(t, db, "ASM-DUP", entity.KindAssembly)
	raw := testutil.SeedSKU(t, db, "RAW-DUP", entity.KindRaw)

	comps, err := svc.BOM.SetBOM(ctx, asm.ID, []ComponentInput{
		{ComponentSKUID: raw.ID, QuantityPerUnit: 2},
		{ComponentSKUID: raw.ID, QuantityPerUnit: 5},
	})
	if err != nil {
		t.Fatalf("SetBOM failed: %v", err)
	}
	if len(comps) != 1 {
		t.Fatalf("Expected 1 edge after dedup, got %d", len(comps))
	}
	if comps[0].QuantityPerUnit != 5 {
		t.Errorf("Expected overwrite to 5, got %d", comps[0].QuantityPerUnit)
	}
}

func TestSetBOMRejectsCycle(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	a := testutil.SeedSKU(t, db, "DAG-A", entity.KindCompleted)
	b := testutil.SeedSKU(t, db, "DAG-B", entity.KindAssembly)
	c := testutil.SeedSKU(t, db, "DAG-C", entity.KindAssembly)

	if _, err := svc.BOM.SetBOM(ctx, a.ID, []ComponentInput{{ComponentSKUID: b.ID, QuantityPerUnit: 1}}); err != nil {
		t.Fatalf("SetBOM(A) failed: %v", err)
	}
	if _, err := svc.BOM.SetBOM(ctx, b.ID, []ComponentInput{{ComponentSKUID: c.ID, QuantityPerUnit: 1}}); err != nil {
		t.Fatalf("SetBOM(B) failed: %v", err)
	}

	// C → A 会闭环 A→B→C→A
	_, err := svc.BOM.SetBOM(ctx, c.ID, []ComponentInput{{ComponentSKUID: a.ID, QuantityPerUnit: 1}})
	if !errors.Is(err, ErrCyclicBOM) {
		t.Errorf("Expected ErrCyclicBOM, got %v", err)
	}
}

func TestGetBOMDistinguishesUnknownFromEmpty(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	asm := testutil.SeedSKU(t, db, "ASM-EMPTY", entity.KindAssembly)

	comps, err := svc.BOM.GetBOM(ctx, asm.ID)
	if err != nil {
		t.Fatalf("GetBOM on empty BOM should succeed: %v", err)
	}
	if len(comps) != 0 {
		t.Errorf("Expected empty BOM, got %d edges", len(comps))
	}

	if _, err := svc.BOM.GetBOM(ctx, "no-such-sku"); !errors.Is(err, ErrSKUNotFound) {
		t.Errorf("Expected ErrSKUNotFound for unknown SKU, got %v", err)
	}
}

func TestSetBOMDeductionOrderIsDeclarationOrder(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	asm := testutil.SeedSKU(t, db, "ASM-ORDER", entity.KindAssembly)
	r1 := testutil.SeedSKU(t, db, "ORDER-R1", entity.KindRaw)
	r2 := testutil.SeedSKU(t, db, "ORDER-R2", entity.KindRaw)
	r3 := testutil.SeedSKU(t, db, "ORDER-R3", entity.KindRaw)

	comps, err := svc.BOM.SetBOM(ctx, asm.ID, []ComponentInput{
		{ComponentSKUID: r3.ID, QuantityPerUnit: 1},
		{ComponentSKUID: r1.ID, QuantityPerUnit: 2},
		{ComponentSKUID: r2.ID, QuantityPerUnit: 3},
	})
	if err != nil {
		t.Fatalf("SetBOM failed: %v", err)
	}
	expected := []string{r3.ID, r1.ID, r2.ID}
	for i, comp := range comps {
		if comp.ComponentSKUID != expected[i] {
			t.Errorf("Edge %d: expected %s, got %s", i, expected[i], comp.ComponentSKUID)
		}
	}
}
