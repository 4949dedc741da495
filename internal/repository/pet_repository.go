package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petkeeper/internal/model"
)

// PetListLimit caps how many pets a single listing returns. There is no
// pagination cursor beyond this cap.
const PetListLimit = 20

// PetRepository defines pet persistence operations. Every query is scoped to
// the owning user: a row belonging to someone else is indistinguishable from
// a row that does not exist.
type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Pet, error)
	UpdateFields(ctx context.Context, ownerID, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type petRepository struct {
	db *gorm.DB
}

// NewPetRepository creates a new pet repository.
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

// Create inserts a new pet row.
func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	return r.db.WithContext(ctx).Create(pet).Error
}

// FindByOwnerAndID returns the pet only if it exists and belongs to ownerID.
func (r *petRepository) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&pet).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

// ListByOwner returns the owner's pets, newest first, capped at PetListLimit.
func (r *petRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Pet, error) {
	var pets []model.Pet
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(PetListLimit).
		Find(&pets).Error; err != nil {
		return nil, err
	}
	return pets, nil
}

// UpdateFields writes only the given columns. Updating a row that does not
// exist under this owner yields gorm.ErrRecordNotFound, never a silent no-op.
func (r *petRepository) UpdateFields(ctx context.Context, ownerID, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Pet{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row if it belongs to ownerID, with the same not-found
// semantics as UpdateFields.
func (r *petRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Pet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
