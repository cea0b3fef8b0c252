package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "circle/internal/errors"
	"circle/internal/models"
	"circle/internal/services"
)

// --- mock category and payee services ---

type mockCategoryService struct {
	listFn   func() ([]models.Category, error)
	createFn func(name string, categoryType models.CategoryType) (*models.Category, error)
}

func (m *mockCategoryService) ListCategories(context.Context) ([]models.Category, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, nil
}

func (m *mockCategoryService) CreateCategory(_ context.Context, name string, categoryType models.CategoryType) (*models.Category, error) {
	if m.createFn != nil {
		return m.createFn(name, categoryType)
	}
	return &models.Category{Name: name, Type: categoryType}, nil
}

func (m *mockCategoryService) SeedDefaults(context.Context) (int, error) { return 0, nil }

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockPayeeService struct {
	listFn func() ([]models.Payee, error)
	getFn  func(id string) (*services.PayeeDetail, error)
}

func (m *mockPayeeService) ListPayees(context.Context) ([]models.Payee, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, nil
}

func (m *mockPayeeService) GetPayee(_ context.Context, id string) (*services.PayeeDetail, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &services.PayeeDetail{}, nil
}

var _ services.PayeeServicer = (*mockPayeeService)(nil)

func setupCategoryRouter(handler *CategoryHandler, payees *PayeeHandler) *gin.Engine {
	r := newRouter()
	r.POST("/categories", handler.CreateCategory)
	r.GET("/categories", handler.ListCategories)
	r.GET("/payees", payees.ListPayees)
	r.GET("/payees/:id", payees.GetPayee)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			createFn: func(name string, categoryType models.CategoryType) (*models.Category, error) {
				return &models.Category{Base: models.Base{ID: "cat-1"}, Name: name, Type: categoryType}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit), NewPayeeHandler(&mockPayeeService{}))
		rec := doRequest(r, "POST", "/categories", `{"name":"Salary","type":"income"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_CATEGORY" || audit.entries[0].resourceID != "cat-1" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}), NewPayeeHandler(&mockPayeeService{}))
		rec := doRequest(r, "POST", "/categories", `{"name":"Salary","type":"windfall"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			createFn: func(string, models.CategoryType) (*models.Category, error) { return nil, apperrors.ErrDuplicateName },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit), NewPayeeHandler(&mockPayeeService{}))
		rec := doRequest(r, "POST", "/categories", `{"name":"Food"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Errorf("failed create must not be audited")
		}
	})
}

func TestCategoryHandler_ListCategories(t *testing.T) {
	svc := &mockCategoryService{
		listFn: func() ([]models.Category, error) {
			return []models.Category{{Name: "Food"}, {Name: "Rent"}}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}), NewPayeeHandler(&mockPayeeService{}))
	rec := doRequest(r, "GET", "/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if categories := parseJSON(t, rec)["categories"].([]interface{}); len(categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(categories))
	}
}

func TestPayeeHandler(t *testing.T) {
	payees := &mockPayeeService{
		listFn: func() ([]models.Payee, error) { return []models.Payee{{Name: "Market"}}, nil },
		getFn: func(id string) (*services.PayeeDetail, error) {
			if id != "p-1" {
				return nil, apperrors.ErrPayeeNotFound
			}
			return &services.PayeeDetail{
				Payee:      models.Payee{Base: models.Base{ID: "p-1"}, Name: "Market"},
				Categories: []models.Category{{Name: "Food"}},
			}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}), NewPayeeHandler(payees))

	t.Run("list", func(t *testing.T) {
		rec := doRequest(r, "GET", "/payees", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if list := parseJSON(t, rec)["payees"].([]interface{}); len(list) != 1 {
			t.Errorf("expected 1 payee, got %d", len(list))
		}
	})

	t.Run("get with hints", func(t *testing.T) {
		rec := doRequest(r, "GET", "/payees/p-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		payee := parseJSON(t, rec)["payee"].(map[string]interface{})
		if payee["name"] != "Market" {
			t.Errorf("expected Market, got %v", payee["name"])
		}
		if cats := payee["categories"].([]interface{}); len(cats) != 1 {
			t.Errorf("expected 1 category hint, got %d", len(cats))
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(r, "GET", "/payees/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAYEE_NOT_FOUND")
	})
}
