package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"recipeapi/internal/models"
)

// LabelRepository defines data access for user-owned labels (tags and
// ingredients).
type LabelRepository[T any] interface {
	// ListByOwner returns the owner's labels ordered by name, then ID. With
	// assignedOnly set, only labels referenced by at least one recipe are
	// returned, each once.
	ListByOwner(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error)
	// GetOwnedByIDs returns the labels among ids that belong to ownerID.
	GetOwnedByIDs(ctx context.Context, ownerID uint, ids []uint) ([]T, error)
	Create(ctx context.Context, label *T) error
}

// LabelTable describes where a label type lives and how recipes reference it.
type LabelTable struct {
	Name       string
	JoinTable  string
	JoinColumn string
}

var (
	TagTable        = LabelTable{Name: "tags", JoinTable: "recipe_tags", JoinColumn: "tag_id"}
	IngredientTable = LabelTable{Name: "ingredients", JoinTable: "recipe_ingredients", JoinColumn: "ingredient_id"}
)

// GORMLabelRepository is a GORM implementation of LabelRepository.
type GORMLabelRepository[T any] struct {
	db    *gorm.DB
	table LabelTable
}

// NewGORMLabelRepository creates a label repository for the given table.
func NewGORMLabelRepository[T any](db *gorm.DB, table LabelTable) *GORMLabelRepository[T] {
	return &GORMLabelRepository[T]{
		db:    db,
		table: table,
	}
}

// NewGORMTagRepository creates the tag repository.
func NewGORMTagRepository(db *gorm.DB) *GORMLabelRepository[models.Tag] {
	return NewGORMLabelRepository[models.Tag](db, TagTable)
}

// NewGORMIngredientRepository creates the ingredient repository.
func NewGORMIngredientRepository(db *gorm.DB) *GORMLabelRepository[models.Ingredient] {
	return NewGORMLabelRepository[models.Ingredient](db, IngredientTable)
}

// ListByOwner retrieves the owner's labels.
func (r *GORMLabelRepository[T]) ListByOwner(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error) {
	labels := []T{}
	q := r.db.WithContext(ctx).Where(r.column("user_id")+" = ?", ownerID)
	if assignedOnly {
		// A subquery rather than a join, so a label used by several recipes appears once.
		assigned := r.db.Table(r.table.JoinTable).Select(r.table.JoinColumn)
		q = q.Where(r.column("id")+" IN (?)", assigned)
	}
	if err := q.Order(r.column("name")).Order(r.column("id")).Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table.Name, err)
	}
	return labels, nil
}

// GetOwnedByIDs retrieves the owner's labels with the given IDs.
func (r *GORMLabelRepository[T]) GetOwnedByIDs(ctx context.Context, ownerID uint, ids []uint) ([]T, error) {
	labels := []T{}
	if len(ids) == 0 {
		return labels, nil
	}
	err := r.db.WithContext(ctx).
		Where(r.column("user_id")+" = ? AND "+r.column("id")+" IN ?", ownerID, ids).
		Order(r.column("id")).
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s by IDs: %w", r.table.Name, err)
	}
	return labels, nil
}

// Create creates a new label in the database.
func (r *GORMLabelRepository[T]) Create(ctx context.Context, label *T) error {
	if err := r.db.WithContext(ctx).Create(label).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.table.Name, err)
	}
	return nil
}

func (r *GORMLabelRepository[T]) column(name string) string {
	return r.table.Name + "." + name
}
