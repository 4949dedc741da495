package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"petkeeper/internal/auth"
	apperrors "petkeeper/internal/errors"
	"petkeeper/internal/model"
	"petkeeper/internal/service"
	"petkeeper/internal/storage"
	"petkeeper/internal/validation"
)

// PetHandler handles pet CRUD endpoints.
type PetHandler struct {
	petService service.PetService
	store      storage.ObjectStore
}

// NewPetHandler creates a new pet handler.
func NewPetHandler(petService service.PetService, store storage.ObjectStore) *PetHandler {
	return &PetHandler{petService: petService, store: store}
}

// PetActionResponse is the structured result of a mutating pet operation.
// Redirect names where the caller should navigate on success; the caller
// decides how to realize it.
type PetActionResponse struct {
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Redirect    string              `json:"redirect,omitempty"`
	Pet         *PetView            `json:"pet,omitempty"`
}

// PetView is a pet row plus its derived public image URL.
type PetView struct {
	model.Pet
	ImageURL string `json:"image_url,omitempty"`
}

func (h *PetHandler) view(pet *model.Pet) *PetView {
	v := &PetView{Pet: *pet}
	if pet.ImagePath != nil {
		v.ImageURL = h.store.PublicURL(*pet.ImagePath)
	}
	return v
}

// ListPets godoc
// @Summary List the caller's pets, newest first
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /pets [get]
func (h *PetHandler) ListPets(c echo.Context) error {
	ownerID, err := currentOwnerID(c)
	if err != nil {
		return err
	}

	pets, err := h.petService.List(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(apperrors.StatusCode(err), apperrors.ErrorResponse{
			Error: apperrors.Translate(err),
			Code:  "LIST_FAILED",
		})
	}

	views := make([]*PetView, 0, len(pets))
	for i := range pets {
		views = append(views, h.view(&pets[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"pets": views})
}

// GetPet godoc
// @Summary Get a single pet by id
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Success 200 {object} PetView
// @Failure 404 {object} errors.ErrorResponse
// @Router /pets/{id} [get]
func (h *PetHandler) GetPet(c echo.Context) error {
	ownerID, err := currentOwnerID(c)
	if err != nil {
		return err
	}
	petID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}

	pet, err := h.petService.Get(c.Request().Context(), ownerID, petID)
	if err != nil {
		return c.JSON(apperrors.StatusCode(err), apperrors.ErrorResponse{
			Error: apperrors.Translate(err),
			Code:  "GET_FAILED",
		})
	}
	return c.JSON(http.StatusOK, h.view(pet))
}

// CreatePet godoc
// @Summary Create a pet with an optional photo
// @Tags pets
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Pet name"
// @Param category formData string true "Category"
// @Param birthday formData string true "Birthday (YYYY-MM-DD)"
// @Param gender formData string true "male or female"
// @Param image formData file false "Photo (JPEG or PNG, max 20MB)"
// @Success 201 {object} PetActionResponse
// @Failure 400 {object} PetActionResponse
// @Router /pets [post]
func (h *PetHandler) CreatePet(c echo.Context) error {
	ownerID, err := currentOwnerID(c)
	if err != nil {
		return err
	}

	form, image, err := parsePetForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, PetActionResponse{
			Success: false,
			Error:   "invalid form data",
		})
	}

	pet, err := h.petService.Create(c.Request().Context(), ownerID, form, image)
	if err != nil {
		return h.actionError(c, err, "edit")
	}

	return c.JSON(http.StatusCreated, PetActionResponse{
		Success:  true,
		Redirect: "/pets",
		Pet:      h.view(pet),
	})
}

// UpdatePet godoc
// @Summary Update a pet; absent fields stay unchanged
// @Tags pets
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Param removeImage formData string false "Set to true to detach the photo"
// @Param image formData file false "Replacement photo"
// @Success 200 {object} PetActionResponse
// @Failure 400 {object} PetActionResponse
// @Failure 404 {object} PetActionResponse
// @Router /pets/{id} [put]
func (h *PetHandler) UpdatePet(c echo.Context) error {
	ownerID, err := currentOwnerID(c)
	if err != nil {
		return err
	}
	petID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}

	form, image, err := parsePetForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, PetActionResponse{
			Success: false,
			Error:   "invalid form data",
		})
	}
	removeImage := c.FormValue("removeImage") == "true"

	pet, err := h.petService.Update(c.Request().Context(), ownerID, petID, form, image, removeImage)
	if err != nil {
		return h.actionError(c, err, "edit")
	}

	return c.JSON(http.StatusOK, PetActionResponse{
		Success:  true,
		Redirect: "/pets/" + petID.String(),
		Pet:      h.view(pet),
	})
}

// DeletePet godoc
// @Summary Delete a pet and its stored photo
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Success 200 {object} PetActionResponse
// @Failure 404 {object} PetActionResponse
// @Router /pets/{id} [delete]
func (h *PetHandler) DeletePet(c echo.Context) error {
	ownerID, err := currentOwnerID(c)
	if err != nil {
		return err
	}
	petID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}

	if err := h.petService.Delete(c.Request().Context(), ownerID, petID); err != nil {
		return h.actionError(c, err, "delete")
	}

	return c.JSON(http.StatusOK, PetActionResponse{
		Success:  true,
		Redirect: "/pets",
	})
}

// actionError turns orchestrator failures into the structured action shape.
// Validation failures carry per-field messages; everything else is reduced
// to a short user-safe string.
func (h *PetHandler) actionError(c echo.Context, err error, verb string) error {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, PetActionResponse{
			Success:     false,
			FieldErrors: vErr.Fields,
		})
	}
	if errors.Is(err, apperrors.ErrPetNotFound) {
		return c.JSON(http.StatusNotFound, PetActionResponse{
			Success: false,
			Error:   fmt.Sprintf("Pet not found or you do not have permission to %s it.", verb),
		})
	}
	return c.JSON(apperrors.StatusCode(err), PetActionResponse{
		Success: false,
		Error:   apperrors.Translate(err),
	})
}

// parsePetForm reads the multipart form, distinguishing absent fields from
// empty ones so partial updates only touch what was actually supplied.
func parsePetForm(c echo.Context) (validation.PetForm, *service.ImageUpload, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return validation.PetForm{}, nil, err
	}

	form := validation.PetForm{
		Name:     formValue(mf, "name"),
		Category: formValue(mf, "category"),
		Birthday: formValue(mf, "birthday"),
		Gender:   formValue(mf, "gender"),
	}

	image, err := formImage(mf, "image")
	if err != nil {
		return validation.PetForm{}, nil, err
	}
	return form, image, nil
}

func formValue(mf *multipart.Form, name string) *string {
	vals, ok := mf.Value[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

func formImage(mf *multipart.Form, name string) (*service.ImageUpload, error) {
	files, ok := mf.File[name]
	if !ok || len(files) == 0 {
		return nil, nil
	}
	header := files[0]

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Oversized files are rejected by validation; read one byte past the
	// limit so the check sees the true size without buffering the rest.
	data, err := io.ReadAll(io.LimitReader(src, validation.MaxImageSize+1))
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}

	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        data,
	}, nil
}

// currentOwnerID extracts the authenticated identity set by the JWT
// middleware. The orchestrator never reaches into ambient state; identity is
// resolved here and passed explicitly.
func currentOwnerID(c echo.Context) (uuid.UUID, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	ownerID, err := claims.OwnerID()
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return ownerID, nil
}
