package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a user-owned dish with its tags, ingredients and an optional image.
type Recipe struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	TimeMinutes int             `json:"time_minutes" gorm:"not null" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(5,2);not null"`
	Link        string          `json:"link" gorm:"type:varchar(255)" validate:"omitempty,url,max=255"`
	Image       string          `json:"image" gorm:"type:varchar(255)"`
	UserID      uint            `json:"-" gorm:"index;not null"`
	Tags        []Tag           `json:"tags" gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient    `json:"ingredients" gorm:"many2many:recipe_ingredients;"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// String returns the recipe title.
func (r Recipe) String() string {
	return r.Title
}

// TagIDs returns the identifiers of the recipe's tags.
func (r *Recipe) TagIDs() []uint {
	ids := make([]uint, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// IngredientIDs returns the identifiers of the recipe's ingredients.
func (r *Recipe) IngredientIDs() []uint {
	ids := make([]uint, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}
