package handler

import (
	"context"
	"net"
	"testing"

	auditusecase "github.com/fekuna/omnipos-production-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/model"
	produsecase "github.com/fekuna/omnipos-production-service/internal/production/usecase"
	recipedto "github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	recipeusecase "github.com/fekuna/omnipos-production-service/internal/recipe/usecase"
	stockdto "github.com/fekuna/omnipos-production-service/internal/stock/dto"
	stockusecase "github.com/fekuna/omnipos-production-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const storeID = "store-1"

type harness struct {
	conn       *grpc.ClientConn
	templateID string
}

// newHarness serves the production service over an in-memory listener with the
// tea recipe (50 cups from 2 l milk and 100 g tea powder) and 10 l milk, 300 g tea.
func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	mem := memory.New()
	auditUC := auditusecase.NewAuditUseCase(mem, nil, log)
	stockUC := stockusecase.NewStockUseCase(mem, mem, auditUC, nil, 0, log)
	recipeUC := recipeusecase.NewRecipeUseCase(mem, mem, stockUC, log)
	prodUC := produsecase.NewProductionUseCase(stockUC, recipeUC, auditUC, mem, produsecase.Options{MaxConflictRetries: 3}, log)

	material := func(name, unit, qty string) string {
		m, err := stockUC.CreateRawMaterial(ctx, &stockdto.CreateRawMaterialInput{
			StoreID:         storeID,
			Name:            name,
			Unit:            unit,
			OpeningQuantity: decimal.RequireFromString(qty),
		})
		if err != nil {
			t.Fatalf("Failed to create raw material: %v", err)
		}
		return m.ID
	}
	milk := material("Milk", "l", "10")
	tea := material("Tea Powder", "g", "300")

	res, err := recipeUC.ResolveOrCreateTemplate(ctx, &recipedto.ResolveTemplateInput{
		StoreID: storeID,
		Name:    "Milk Tea",
		Unit:    "cup",
		Kind: model.ManufacturedKind{
			Yield: decimal.RequireFromString("50"),
			Ingredients: []model.IngredientSpec{
				{RawMaterialID: milk, Quantity: decimal.RequireFromString("2")},
				{RawMaterialID: tea, Quantity: decimal.RequireFromString("100")},
			},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create recipe: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.ContextInterceptor()))
	Register(srv, NewProductionHandler(prodUC, log))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{conn: conn, templateID: res.Template.ID}
}

func (h *harness) call(ctx context.Context, name string, body map[string]interface{}) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(body)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, "/"+serviceName+"/"+name, req, out)
	return out, err
}

func asStore(id string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "x-store-id", id, "x-user-id", "user-1")
}

func TestProduceOverGRPC(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(asStore(storeID), "Produce", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    "100",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if state := out.Fields["state"].GetStringValue(); state != string(model.StateCommitted) {
		t.Errorf("Expected state committed, got %q", state)
	}
	event := out.Fields["event"].GetStructValue()
	if event == nil {
		t.Fatal("Expected an event in the response")
	}
	if actor := event.Fields["actor_id"].GetStringValue(); actor != "user-1" {
		t.Errorf("Expected actor user-1 from metadata, got %q", actor)
	}
	if lines := event.Fields["lines"].GetListValue().GetValues(); len(lines) != 2 {
		t.Errorf("Expected 2 event lines, got %d", len(lines))
	}
}

func TestProduceShortageStatus(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(asStore(storeID), "Produce", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    200,
	})

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		t.Fatalf("Expected FailedPrecondition, got %v", err)
	}
	if len(st.Details()) == 0 {
		t.Error("Expected the shortage report in the status details")
	}
}

func TestShortageReportOverGRPC(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(asStore(storeID), "GetShortageReport", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    "200",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Fields["feasible"].GetBoolValue() {
		t.Error("Expected 200 cups to be infeasible")
	}
	report := out.Fields["report"].GetStructValue()
	if report == nil || len(report.Fields["lines"].GetListValue().GetValues()) != 2 {
		t.Errorf("Expected a report with 2 lines, got %v", report)
	}
}

func TestRequestsNeedStore(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(context.Background(), "Produce", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    "1",
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("Expected Unauthenticated, got %v", err)
	}
}

func TestProduceValidationStatus(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(asStore(storeID), "Produce", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    "0",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
}

func TestOtherStoreCannotProduce(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(asStore("store-2"), "Produce", map[string]interface{}{
		"template_id": h.templateID,
		"quantity":    "1",
	})
	if status.Code(err) != codes.NotFound {
		t.Errorf("Expected NotFound, got %v", err)
	}
}
