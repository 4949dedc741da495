package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "petkeeper/internal/errors"
	"petkeeper/internal/model"
	"petkeeper/internal/validation"
)

// MockPetRepository is a mock implementation of PetRepository.
type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) Create(ctx context.Context, pet *model.Pet) error {
	args := m.Called(ctx, pet)
	return args.Error(0)
}

func (m *MockPetRepository) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Pet), args.Error(1)
}

func (m *MockPetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Pet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Pet), args.Error(1)
}

func (m *MockPetRepository) UpdateFields(ctx context.Context, ownerID, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, ownerID, id, fields)
	return args.Error(0)
}

func (m *MockPetRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of storage.ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func strPtr(s string) *string {
	return &s
}

func maxForm() validation.PetForm {
	return validation.PetForm{
		Name:     strPtr("Max"),
		Category: strPtr("Dog"),
		Birthday: strPtr("2020-03-15"),
		Gender:   strPtr("male"),
	}
}

func testImage() *ImageUpload {
	return &ImageUpload{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Data:        []byte("data"),
	}
}

func newTestService(repo *MockPetRepository, store *MockObjectStore) PetService {
	// nil cache client: the cache layer fails open, so every read goes to
	// the repository and invalidation is a no-op.
	return NewPetService(repo, store, nil)
}

func TestPetService_Create_NoImage(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Pet")).Return(nil)

	svc := newTestService(repo, store)
	pet, err := svc.Create(context.Background(), ownerID, maxForm(), nil)

	assert.NoError(t, err)
	assert.NotNil(t, pet)
	assert.Equal(t, "Max", pet.Name)
	assert.Equal(t, "Dog", pet.Category)
	assert.Equal(t, "male", pet.Gender)
	assert.Equal(t, ownerID, pet.OwnerID)
	assert.Nil(t, pet.ImagePath)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestPetService_Create_WithImage(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, ownerID.String()+"/pets/")
	}), []byte("data"), "image/jpeg").Return(nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Pet")).Return(nil)

	svc := newTestService(repo, store)
	pet, err := svc.Create(context.Background(), ownerID, maxForm(), testImage())

	assert.NoError(t, err)
	if assert.NotNil(t, pet.ImagePath) {
		assert.True(t, strings.HasPrefix(*pet.ImagePath, ownerID.String()+"/pets/"))
		assert.True(t, strings.HasSuffix(*pet.ImagePath, "-photo.jpg"))
	}
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestPetService_Create_UploadFailureAbortsBeforeRowWrite(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket unreachable"))

	svc := newTestService(repo, store)
	pet, err := svc.Create(context.Background(), ownerID, maxForm(), testImage())

	assert.ErrorIs(t, err, apperrors.ErrImageUpload)
	assert.Nil(t, pet)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPetService_Create_ValidationFailureHasNoSideEffects(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	form := maxForm()
	tomorrow := time.Now().AddDate(0, 0, 1).Format(validation.BirthdayLayout)
	form.Birthday = &tomorrow

	svc := newTestService(repo, store)
	pet, err := svc.Create(context.Background(), ownerID, form, nil)

	assert.Nil(t, pet)
	var vErr *validation.Error
	if assert.ErrorAs(t, err, &vErr) {
		assert.Contains(t, vErr.Fields["birthday"], "Birthday cannot be in the future")
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Create_ZeroByteImageTreatedAsAbsent(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Pet")).Return(nil)

	empty := &ImageUpload{Filename: "empty.png", ContentType: "image/png", Size: 0}
	svc := newTestService(repo, store)
	pet, err := svc.Create(context.Background(), ownerID, maxForm(), empty)

	assert.NoError(t, err)
	assert.Nil(t, pet.ImagePath)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Get_NotOwnedIsNotFound(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	petID := uuid.New()

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, petID).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestService(repo, store)
	pet, err := svc.Get(context.Background(), ownerID, petID)

	assert.Nil(t, pet)
	assert.ErrorIs(t, err, apperrors.ErrPetNotFound)
}

func TestPetService_List(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()

	expected := []model.Pet{
		{ID: uuid.New(), OwnerID: ownerID, Name: "Luna"},
		{ID: uuid.New(), OwnerID: ownerID, Name: "Max"},
	}
	repo.On("ListByOwner", mock.Anything, ownerID).Return(expected, nil)

	svc := newTestService(repo, store)
	pets, err := svc.List(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Equal(t, expected, pets)
}

func existingPet(ownerID uuid.UUID, imagePath *string) *model.Pet {
	return &model.Pet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      "Max",
		Category:  "Dog",
		Birthday:  time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC),
		Gender:    model.GenderMale,
		ImagePath: imagePath,
		CreatedAt: time.Now(),
	}
}

func TestPetService_Update_PartialPatchOnlyWritesSuppliedFields(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	existing := existingPet(ownerID, nil)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	repo.On("UpdateFields", mock.Anything, ownerID, existing.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		_, hasName := fields["name"]
		return len(fields) == 1 && hasName && fields["name"] == "NewName"
	})).Return(nil)

	svc := newTestService(repo, store)
	pet, err := svc.Update(context.Background(), ownerID, existing.ID,
		validation.PetForm{Name: strPtr("NewName")}, nil, false)

	assert.NoError(t, err)
	assert.NotNil(t, pet)
	repo.AssertExpectations(t)
}

func TestPetService_Update_NothingSuppliedIsANoOp(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	existing := existingPet(ownerID, nil)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)

	svc := newTestService(repo, store)
	pet, err := svc.Update(context.Background(), ownerID, existing.ID, validation.PetForm{}, nil, false)

	assert.NoError(t, err)
	assert.Equal(t, existing, pet)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Update_RemoveImageFlag(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	oldKey := ownerID.String() + "/pets/old-key.jpg"
	existing := existingPet(ownerID, &oldKey)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	store.On("Remove", mock.Anything, oldKey).Return(nil)
	repo.On("UpdateFields", mock.Anything, ownerID, existing.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		val, ok := fields["image_path"]
		return ok && val == nil
	})).Return(nil)

	svc := newTestService(repo, store)
	_, err := svc.Update(context.Background(), ownerID, existing.ID, validation.PetForm{}, nil, true)

	assert.NoError(t, err)
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestPetService_Update_RemoveFlagWinsOverNewFile(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	oldKey := ownerID.String() + "/pets/old-key.jpg"
	existing := existingPet(ownerID, &oldKey)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	store.On("Remove", mock.Anything, oldKey).Return(nil)
	repo.On("UpdateFields", mock.Anything, ownerID, existing.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		val, ok := fields["image_path"]
		return ok && val == nil
	})).Return(nil)

	svc := newTestService(repo, store)
	_, err := svc.Update(context.Background(), ownerID, existing.ID, validation.PetForm{}, testImage(), true)

	assert.NoError(t, err)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Update_OldImageDeleteFailureDoesNotBlockReplacement(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	oldKey := ownerID.String() + "/pets/old-key.jpg"
	existing := existingPet(ownerID, &oldKey)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	store.On("Remove", mock.Anything, oldKey).Return(errors.New("transient bucket error"))
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateFields", mock.Anything, ownerID, existing.ID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		key, ok := fields["image_path"].(string)
		return ok && strings.HasPrefix(key, ownerID.String()+"/pets/")
	})).Return(nil)

	svc := newTestService(repo, store)
	_, err := svc.Update(context.Background(), ownerID, existing.ID, validation.PetForm{}, testImage(), false)

	assert.NoError(t, err)
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestPetService_Update_NewUploadFailureAborts(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	existing := existingPet(ownerID, nil)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket unreachable"))

	svc := newTestService(repo, store)
	pet, err := svc.Update(context.Background(), ownerID, existing.ID, validation.PetForm{}, testImage(), false)

	assert.Nil(t, pet)
	assert.ErrorIs(t, err, apperrors.ErrImageUpload)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Update_NonexistentIsNotFound(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	petID := uuid.New()

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, petID).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestService(repo, store)
	pet, err := svc.Update(context.Background(), ownerID, petID,
		validation.PetForm{Name: strPtr("NewName")}, nil, false)

	assert.Nil(t, pet)
	assert.ErrorIs(t, err, apperrors.ErrPetNotFound)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPetService_Delete_RemovesImageBestEffort(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	oldKey := ownerID.String() + "/pets/old-key.jpg"
	existing := existingPet(ownerID, &oldKey)

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, existing.ID).Return(existing, nil)
	store.On("Remove", mock.Anything, oldKey).Return(errors.New("already gone"))
	repo.On("Delete", mock.Anything, ownerID, existing.ID).Return(nil)

	svc := newTestService(repo, store)
	err := svc.Delete(context.Background(), ownerID, existing.ID)

	assert.NoError(t, err, "image delete failure must not block row deletion")
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestPetService_Delete_NonexistentIsNotFound(t *testing.T) {
	repo := new(MockPetRepository)
	store := new(MockObjectStore)
	ownerID := uuid.New()
	petID := uuid.New()

	repo.On("FindByOwnerAndID", mock.Anything, ownerID, petID).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestService(repo, store)
	err := svc.Delete(context.Background(), ownerID, petID)

	assert.ErrorIs(t, err, apperrors.ErrPetNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
