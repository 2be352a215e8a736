package production

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func teaBatch() *model.RecipeBatch {
	return &model.RecipeBatch{
		BaseModel:          model.BaseModel{ID: "b1"},
		TemplateID:         "t1",
		BatchName:          "Standard Recipe",
		ProducibleQuantity: dec("50"),
		IsActive:           true,
		Ingredients: []model.RecipeIngredient{
			{RawMaterialID: "tea", QuantityNeeded: dec("100"), Unit: "g"},
			{RawMaterialID: "milk", QuantityNeeded: dec("2"), Unit: "l"},
		},
	}
}

func TestRatio(t *testing.T) {
	testCases := []struct {
		name     string
		yield    string
		quantity string
		want     string
		wantErr  error
	}{
		{"double batch", "50", "100", "2", nil},
		{"half batch", "50", "25", "0.5", nil},
		{"fractional yield", "2.5", "10", "4", nil},
		{"zero quantity", "50", "0", "", apperr.ErrInvalidQuantity},
		{"negative quantity", "50", "-1", "", apperr.ErrInvalidQuantity},
		{"zero yield", "0", "10", "", apperr.ErrInvalidYield},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Ratio(dec(tc.yield), dec(tc.quantity))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected %v, got %v", tc.wantErr, err)
				}
				if !errors.Is(err, apperr.ErrValidation) {
					t.Errorf("Expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("Expected ratio %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRequirementsScaleEveryIngredient(t *testing.T) {
	reqs, ratio, err := Requirements(teaBatch(), dec("100"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ratio.Equal(dec("2")) {
		t.Errorf("Expected ratio 2, got %s", ratio)
	}
	if len(reqs) != 2 {
		t.Fatalf("Expected 2 requirements, got %d", len(reqs))
	}
	// sorted by raw material id
	if reqs[0].RawMaterialID != "milk" || !reqs[0].Required.Equal(dec("4")) || reqs[0].Unit != "l" {
		t.Errorf("Expected milk 4 l, got %s %s %s", reqs[0].RawMaterialID, reqs[0].Required, reqs[0].Unit)
	}
	if reqs[1].RawMaterialID != "tea" || !reqs[1].Required.Equal(dec("200")) {
		t.Errorf("Expected tea 200, got %s %s", reqs[1].RawMaterialID, reqs[1].Required)
	}
}

func TestRequirementsMultiplyBeforeDividing(t *testing.T) {
	batch := &model.RecipeBatch{
		ProducibleQuantity: dec("3"),
		Ingredients:        []model.RecipeIngredient{{RawMaterialID: "syrup", QuantityNeeded: dec("0.6")}},
	}

	reqs, _, err := Requirements(batch, dec("5"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reqs[0].Required.Equal(dec("1")) {
		t.Errorf("Expected exactly 1, got %s", reqs[0].Required)
	}
}

func TestRequirementsMatchFormula(t *testing.T) {
	for _, q := range []string{"1", "7.5", "33", "0.25", "1000"} {
		reqs, _, err := Requirements(teaBatch(), dec(q))
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", q, err)
		}
		for _, r := range reqs {
			per := dec("2")
			if r.RawMaterialID == "tea" {
				per = dec("100")
			}
			want := per.Mul(dec(q)).Div(dec("50"))
			if !r.Required.Equal(want) {
				t.Errorf("Q=%s: expected %s of %s, got %s", q, want, r.RawMaterialID, r.Required)
			}
		}
	}
}

func TestRequirementsMergeRepeatedMaterial(t *testing.T) {
	batch := &model.RecipeBatch{
		ProducibleQuantity: dec("10"),
		Ingredients: []model.RecipeIngredient{
			{RawMaterialID: "sugar", QuantityNeeded: dec("1")},
			{RawMaterialID: "sugar", QuantityNeeded: dec("2")},
		},
	}

	reqs, _, err := Requirements(batch, dec("10"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(reqs) != 1 || !reqs[0].Required.Equal(dec("3")) {
		t.Errorf("Expected one requirement of 3, got %+v", reqs)
	}
}

func TestRequirementsRejectBadInput(t *testing.T) {
	if _, _, err := Requirements(teaBatch(), decimal.Zero); !errors.Is(err, apperr.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}

	broken := teaBatch()
	broken.ProducibleQuantity = decimal.Zero
	if _, _, err := Requirements(broken, dec("1")); !errors.Is(err, apperr.ErrInvalidYield) {
		t.Errorf("Expected ErrInvalidYield, got %v", err)
	}
}
