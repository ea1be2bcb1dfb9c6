package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Plan is a subscription tier. Rows are created at catalog load and are
// read-only afterwards; limit columns use NULL for "unlimited".
type Plan struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Name                string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description         string          `gorm:"type:text" json:"description"`
	Price               decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency            string          `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	MedicalConditionCap *int            `gorm:"default:null" json:"medical_condition_cap,omitempty"`
	AllergyCap          *int            `gorm:"default:null" json:"allergy_cap,omitempty"`
	DietPreferenceCap   *int            `gorm:"default:null" json:"diet_preference_cap,omitempty"`
	IngredientsPerQuery *int            `gorm:"default:null" json:"ingredients_per_query,omitempty"`
	FavoriteRecipeCap   *int            `gorm:"default:null" json:"favorite_recipe_cap,omitempty"`
	IsActive            bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsFree reports whether subscribing to the plan requires no payment.
func (p *Plan) IsFree() bool {
	return p.Price.IsZero()
}
