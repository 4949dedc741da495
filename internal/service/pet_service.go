package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petkeeper/internal/cache"
	apperrors "petkeeper/internal/errors"
	"petkeeper/internal/imaging"
	"petkeeper/internal/model"
	"petkeeper/internal/repository"
	"petkeeper/internal/storage"
	"petkeeper/internal/validation"
)

const petCacheTTL = 5 * time.Minute

// ImageUpload is an attached photo as received from the caller.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// PetService sequences validation, image side effects, row mutations and
// view invalidation for the pet lifecycle. Failure classification is
// deliberately asymmetric: a failed upload aborts before any row write,
// while a failed delete of a stale image is logged and the operation
// proceeds.
type PetService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Pet, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error)
	Create(ctx context.Context, ownerID uuid.UUID, form validation.PetForm, image *ImageUpload) (*model.Pet, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, form validation.PetForm, image *ImageUpload, removeImage bool) (*model.Pet, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type petService struct {
	repo  repository.PetRepository
	store storage.ObjectStore
	cache *cache.Client
}

// NewPetService creates a new pet service.
func NewPetService(repo repository.PetRepository, store storage.ObjectStore, cache *cache.Client) PetService {
	return &petService{
		repo:  repo,
		store: store,
		cache: cache,
	}
}

// List returns the owner's pets, newest first, capped by the repository.
func (s *petService) List(ctx context.Context, ownerID uuid.UUID) ([]model.Pet, error) {
	key := cache.PetListKey(ownerID)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Pet
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	pets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}

	if payload, err := json.Marshal(pets); err == nil {
		_ = s.cache.Set(ctx, key, payload, petCacheTTL)
	}
	return pets, nil
}

// Get returns the pet if it exists and belongs to ownerID.
func (s *petService) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error) {
	key := cache.PetDetailKey(ownerID, id)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached model.Pet
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	pet, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrPetNotFound
		}
		return nil, fmt.Errorf("get pet: %w", err)
	}

	if payload, err := json.Marshal(pet); err == nil {
		_ = s.cache.Set(ctx, key, payload, petCacheTTL)
	}
	return pet, nil
}

// Create validates the attribute set, uploads the optional image, then
// writes the row. An upload failure aborts before any database write so a
// row can never reference an image that was not stored.
func (s *petService) Create(ctx context.Context, ownerID uuid.UUID, form validation.PetForm, image *ImageUpload) (*model.Pet, error) {
	image = normalizeImage(image)

	attrs, errs := validation.Validate(form)
	if image != nil {
		mergeErrors(errs, validation.ValidateImage(image.ContentType, image.Size))
	}
	if errs.Any() {
		return nil, &validation.Error{Fields: errs}
	}

	var imagePath *string
	if image != nil {
		key, err := s.uploadImage(ctx, ownerID, image)
		if err != nil {
			return nil, err
		}
		imagePath = &key
	}

	pet := &model.Pet{
		OwnerID:   ownerID,
		Name:      attrs.Name,
		Category:  attrs.Category,
		Birthday:  attrs.Birthday,
		Gender:    attrs.Gender,
		ImagePath: imagePath,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		if imagePath != nil {
			// Orphaned object in the bucket; accepted, no reconciliation.
			log.Printf("pet create failed after image upload, orphaned key %s: %v", *imagePath, err)
		}
		return nil, fmt.Errorf("create pet: %w", err)
	}

	s.cache.Invalidate(ctx, cache.PetListKey(ownerID))
	return pet, nil
}

// Update verifies ownership, applies the partial attribute patch, and
// resolves the image delta: the remove flag wins over a new file, a new file
// wins over no change. Absent fields are never written.
func (s *petService) Update(ctx context.Context, ownerID, id uuid.UUID, form validation.PetForm, image *ImageUpload, removeImage bool) (*model.Pet, error) {
	existing, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrPetNotFound
		}
		return nil, fmt.Errorf("fetch pet: %w", err)
	}

	image = normalizeImage(image)

	patch, errs := validation.ValidatePartial(form)
	if image != nil {
		mergeErrors(errs, validation.ValidateImage(image.ContentType, image.Size))
	}
	if errs.Any() {
		return nil, &validation.Error{Fields: errs}
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if patch.Birthday != nil {
		fields["birthday"] = *patch.Birthday
	}
	if patch.Gender != nil {
		fields["gender"] = *patch.Gender
	}

	switch {
	case removeImage:
		if existing.ImagePath != nil {
			s.removeOldImage(ctx, *existing.ImagePath)
		}
		fields["image_path"] = nil
	case image != nil:
		if existing.ImagePath != nil {
			s.removeOldImage(ctx, *existing.ImagePath)
		}
		key, err := s.uploadImage(ctx, ownerID, image)
		if err != nil {
			return nil, err
		}
		fields["image_path"] = key
	}

	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.UpdateFields(ctx, ownerID, id, fields); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrPetNotFound
		}
		return nil, fmt.Errorf("update pet: %w", err)
	}

	s.cache.Invalidate(ctx, cache.PetListKey(ownerID), cache.PetDetailKey(ownerID, id))

	updated, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("reload pet: %w", err)
	}
	return updated, nil
}

// Delete verifies ownership, removes the attached image best-effort, then
// deletes the row permanently.
func (s *petService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	pet, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrPetNotFound
		}
		return fmt.Errorf("fetch pet: %w", err)
	}

	if pet.ImagePath != nil {
		s.removeOldImage(ctx, *pet.ImagePath)
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrPetNotFound
		}
		return fmt.Errorf("delete pet: %w", err)
	}

	s.cache.Invalidate(ctx, cache.PetListKey(ownerID), cache.PetDetailKey(ownerID, id))
	return nil
}

// uploadImage derives a fresh key, compresses best-effort and writes the
// bytes to the bucket. A failed upload is blocking for the whole operation.
func (s *petService) uploadImage(ctx context.Context, ownerID uuid.UUID, image *ImageUpload) (string, error) {
	key := storage.ObjectKey(ownerID, image.Filename)

	data, err := imaging.Compress(image.Data, image.ContentType)
	if err != nil {
		// Non-fatal: upload the original bytes instead.
		log.Printf("image compression failed for %s, uploading original: %v", image.Filename, err)
	}

	if err := s.store.Put(ctx, key, data, image.ContentType); err != nil {
		log.Printf("image upload failed for key %s: %v", key, err)
		return "", apperrors.ErrImageUpload
	}
	return key, nil
}

// removeOldImage deletes a stale key best-effort. Losing an orphaned image
// is acceptable; blocking the operation on it is not.
func (s *petService) removeOldImage(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		log.Printf("failed to delete old image %s: %v", key, err)
	}
}

// normalizeImage treats a present-but-empty file as no image supplied.
func normalizeImage(image *ImageUpload) *ImageUpload {
	if image == nil || image.Size == 0 {
		return nil
	}
	return image
}

func mergeErrors(dst, src validation.Errors) {
	for field, msgs := range src {
		dst[field] = append(dst[field], msgs...)
	}
}
