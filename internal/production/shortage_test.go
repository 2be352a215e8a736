package production

import (
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

func TestBuildShortageReport(t *testing.T) {
	batch := teaBatch()
	reqs, ratio, err := Requirements(batch, dec("100"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	t.Run("sufficient", func(t *testing.T) {
		report := BuildShortageReport(batch, dec("100"), ratio, reqs, map[string]decimal.Decimal{
			"milk": dec("10"),
			"tea":  dec("300"),
		})
		if !report.Feasible() {
			t.Fatalf("Expected feasible report, got %+v", report.Lines)
		}
		for _, l := range report.Lines {
			if l.Status != model.StatusSufficient || !l.Deficit.IsZero() {
				t.Errorf("Expected %s sufficient with no deficit, got %s %s", l.RawMaterialID, l.Status, l.Deficit)
			}
		}
		if report.TemplateID != "t1" || report.BatchID != "b1" {
			t.Errorf("Expected template t1 batch b1, got %s %s", report.TemplateID, report.BatchID)
		}
	})

	t.Run("tea short by 50", func(t *testing.T) {
		report := BuildShortageReport(batch, dec("100"), ratio, reqs, map[string]decimal.Decimal{
			"milk": dec("10"),
			"tea":  dec("150"),
		})
		if report.Feasible() {
			t.Fatal("Expected infeasible report")
		}
		short := report.Shortages()
		if len(short) != 1 {
			t.Fatalf("Expected 1 shortage, got %d", len(short))
		}
		if short[0].RawMaterialID != "tea" || !short[0].Deficit.Equal(dec("50")) {
			t.Errorf("Expected tea deficit 50, got %s %s", short[0].RawMaterialID, short[0].Deficit)
		}
		if !short[0].Required.Equal(dec("200")) || !short[0].Available.Equal(dec("150")) {
			t.Errorf("Expected required 200 available 150, got %s %s", short[0].Required, short[0].Available)
		}
	})

	t.Run("missing row counts as zero", func(t *testing.T) {
		report := BuildShortageReport(batch, dec("100"), ratio, reqs, map[string]decimal.Decimal{"tea": dec("500")})
		short := report.Shortages()
		if len(short) != 1 || short[0].RawMaterialID != "milk" || !short[0].Deficit.Equal(dec("4")) {
			t.Errorf("Expected milk deficit 4, got %+v", short)
		}
	})
}
