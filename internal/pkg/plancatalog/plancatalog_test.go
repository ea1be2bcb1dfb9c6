package plancatalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
)

func newCatalogWithPlans(t *testing.T) (*Catalog, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()

	two := 2
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:              models.PlanFree,
		Price:             decimal.Zero,
		Currency:          "COP",
		FavoriteRecipeCap: &two,
		IsActive:          true,
	}))
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:     models.PlanPremium,
		Price:    decimal.RequireFromString("29900.00"),
		Currency: "COP",
		IsActive: true,
	}))
	return NewCatalog(store), store
}

func TestFindByName(t *testing.T) {
	catalog, _ := newCatalogWithPlans(t)

	plan, err := catalog.FindByName(context.Background(), "premium")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, plan.Name)
	assert.False(t, plan.IsFree())

	// Lookup is case-insensitive like the rest of the plan handling.
	plan, err = catalog.FindByName(context.Background(), "  PREMIUM ")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, plan.Name)
}

func TestFindByNameUnknown(t *testing.T) {
	catalog, _ := newCatalogWithPlans(t)

	_, err := catalog.FindByName(context.Background(), "gold")
	assert.True(t, errors.Is(err, apperror.NotFound("")))

	_, err = catalog.FindByName(context.Background(), "")
	assert.True(t, errors.Is(err, apperror.Validation("")))
}

func TestListActiveOrdersByPrice(t *testing.T) {
	catalog, _ := newCatalogWithPlans(t)

	plans, err := catalog.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, models.PlanFree, plans[0].Name)
	assert.Equal(t, models.PlanPremium, plans[1].Name)
}

func TestPlanLimits(t *testing.T) {
	catalog, _ := newCatalogWithPlans(t)

	free, err := catalog.FreePlan(context.Background())
	require.NoError(t, err)

	limits := PlanLimits(free)
	require.NotNil(t, limits["favorite_recipes"])
	assert.Equal(t, 2, *limits["favorite_recipes"])
	assert.Nil(t, limits["medical_conditions"])
}

func TestIsPremium(t *testing.T) {
	assert.True(t, IsPremium("premium"))
	assert.True(t, IsPremium("Premium"))
	assert.False(t, IsPremium("free"))
}
