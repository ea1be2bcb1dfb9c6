package plancatalog

import (
	"context"
	"errors"
	"strings"

	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Limits is the named feature caps of a plan. A nil value means the cap is
// unbounded, which serializes as JSON null.
type Limits map[string]*int

// Catalog is the read-only lookup over the plan table. Plans are created at
// catalog load and immutable afterwards.
type Catalog struct {
	store repository.Store
}

// NewCatalog creates a plan catalog over the injected store.
func NewCatalog(store repository.Store) *Catalog {
	return &Catalog{store: store}
}

// FindByName resolves a plan by its unique name.
func (c *Catalog) FindByName(ctx context.Context, name string) (*models.Plan, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperror.Validation("plan name is required")
	}
	plan, err := c.store.WithContext(ctx).Plans().GetByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("plan not found: " + name)
		}
		return nil, apperror.Storage(err)
	}
	return plan, nil
}

// FreePlan returns the fallback plan whose limits apply to users without a
// valid subscription.
func (c *Catalog) FreePlan(ctx context.Context) (*models.Plan, error) {
	return c.FindByName(ctx, models.PlanFree)
}

// ListActive returns all plans currently offered, cheapest first.
func (c *Catalog) ListActive(ctx context.Context) ([]models.Plan, error) {
	plans, err := c.store.WithContext(ctx).Plans().ListActive()
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return plans, nil
}

// PlanLimits maps a plan's caps to their wire names.
func PlanLimits(plan *models.Plan) Limits {
	return Limits{
		"medical_conditions":    plan.MedicalConditionCap,
		"allergies":             plan.AllergyCap,
		"diet_preferences":      plan.DietPreferenceCap,
		"ingredients_per_query": plan.IngredientsPerQuery,
		"favorite_recipes":      plan.FavoriteRecipeCap,
	}
}

// IsPremium reports whether the plan name is the premium tier.
func IsPremium(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), models.PlanPremium)
}
