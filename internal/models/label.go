package models

import "time"

// Label is implemented by the user-owned names that recipes reference
// (tags and ingredients).
type Label interface {
	LabelName() string
	SetLabelName(name string)
	AssignOwner(userID uint)
}

// Tag categorizes recipes, e.g. "Vegan" or "Dessert".
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"-"`
}

func (t *Tag) LabelName() string        { return t.Name }
func (t *Tag) SetLabelName(name string) { t.Name = name }
func (t *Tag) AssignOwner(userID uint)  { t.UserID = userID }

// String returns the tag name.
func (t Tag) String() string {
	return t.Name
}

// Ingredient is something a recipe is made of.
type Ingredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"-"`
}

func (i *Ingredient) LabelName() string        { return i.Name }
func (i *Ingredient) SetLabelName(name string) { i.Name = name }
func (i *Ingredient) AssignOwner(userID uint)  { i.UserID = userID }

// String returns the ingredient name.
func (i Ingredient) String() string {
	return i.Name
}
