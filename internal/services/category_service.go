package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
)

//go:embed seed/categories.yaml
var defaultCategories []byte

// CategorySeed is the YAML layout of a category seed file.
type CategorySeed struct {
	Categories []struct {
		Name string              `yaml:"name"`
		Type models.CategoryType `yaml:"type"`
	} `yaml:"categories"`
}

// LoadCategorySeed reads a seed file, or the bundled defaults when path is empty.
func LoadCategorySeed(path string) (*CategorySeed, error) {
	data := defaultCategories
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read category seed: %w", err)
		}
	}

	var seed CategorySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	for _, c := range seed.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("parse category seed: blank category name")
		}
		if c.Type != models.CategoryTypeExpense && c.Type != models.CategoryTypeIncome {
			return nil, fmt.Errorf("parse category seed: category %q has type %q", c.Name, c.Type)
		}
	}
	return &seed, nil
}

// categoryService handles category-related business logic.
type categoryService struct {
	ledger   *ledger.Ledger
	seedFile string
}

// NewCategoryService creates a new CategoryServicer. seedFile overrides the
// bundled default categories when set.
func NewCategoryService(l *ledger.Ledger, seedFile string) CategoryServicer {
	return &categoryService{ledger: l, seedFile: seedFile}
}

// ListCategories returns every category ordered by name.
func (s *categoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.ledger.Gateway().ListCategories(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, name string, categoryType models.CategoryType) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType == "" {
		categoryType = models.CategoryTypeExpense
	}
	if categoryType != models.CategoryTypeExpense && categoryType != models.CategoryTypeIncome {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be expense or income")
	}

	category := &models.Category{Name: name, Type: categoryType}
	err := s.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		_, err := gw.FindCategoryByName(ctx, name)
		switch {
		case err == nil:
			return apperrors.WithMessage(apperrors.ErrDuplicateName, "a category named "+name+" already exists")
		case !errors.Is(err, store.ErrNotFound):
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := gw.AddCategory(ctx, category); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// SeedDefaults fills a blank category list from the seed file and returns the
// number of categories created. It does nothing once any category exists.
func (s *categoryService) SeedDefaults(ctx context.Context) (int, error) {
	seed, err := LoadCategorySeed(s.seedFile)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	err = s.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		existing, err := gw.ListCategories(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(existing) > 0 {
			return nil
		}
		for _, c := range seed.Categories {
			if err := gw.AddCategory(ctx, &models.Category{Name: c.Name, Type: c.Type}); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		logger.Get().Infow("Seeded default categories", "count", created)
	}
	return created, nil
}
