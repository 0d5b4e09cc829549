package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// birthdayWindowDays is the span of the upcoming-birthdays query: today
// through today+7, inclusive on both ends.
const birthdayWindowDays = 7

// defaultListLimit caps the list endpoint when no limit is supplied.
const defaultListLimit = 10

// ContactHandler bundles dependencies for the contact endpoints. Every
// operation is scoped to the authenticated user injected by the JWT
// middleware.
type ContactHandler struct {
	Contacts *repository.ContactRepo
}

func NewContactHandler(contacts *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Contacts: contacts}
}

// contactReq is the create payload. Description is optional on create.
type contactReq struct {
	Name        string     `json:"name" validate:"required,min=1,max=50"`
	Surname     string     `json:"surname" validate:"required,min=1,max=50"`
	Email       string     `json:"email" validate:"required,email"`
	PhoneNumber string     `json:"phonenumber" validate:"required,phone"`
	Birthday    model.Date `json:"birthday" validate:"required"`
	Description *string    `json:"description" validate:"omitempty,max=150"`
}

// contactUpdateReq is the full-replace update payload: every field is
// required, including description, and overwrites the stored value.
type contactUpdateReq struct {
	Name        string     `json:"name" validate:"required,min=1,max=50"`
	Surname     string     `json:"surname" validate:"required,min=1,max=50"`
	Email       string     `json:"email" validate:"required,email"`
	PhoneNumber string     `json:"phonenumber" validate:"required,phone"`
	Birthday    model.Date `json:"birthday" validate:"required"`
	Description string     `json:"description" validate:"max=150"`
}

// List handles GET /contacts/. The name, surname and email parameters are
// optional equality filters combined with OR across the supplied ones;
// skip and limit paginate the result.
func (h *ContactHandler) List(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skip parameter"})
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit parameter"})
	}

	filter := repository.ContactFilter{
		Name:    c.QueryParam("name"),
		Surname: c.QueryParam("surname"),
		Email:   c.QueryParam("email"),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Contacts.ListByOwner(ctx, u.ID, filter, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if items == nil {
		items = []*model.Contact{}
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /contacts/ and assigns ownership to the caller.
func (h *ContactHandler) Create(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	contact := &model.Contact{
		UserID:      u.ID,
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    req.Birthday,
		Description: req.Description,
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Contacts.Create(ctx, contact); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create contact"})
	}
	return c.JSON(http.StatusCreated, contact)
}

// Get handles GET /contacts/:id. A contact owned by another user is
// indistinguishable from a missing one.
func (h *ContactHandler) Get(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contact, err := h.Contacts.GetByIDAndOwner(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, contact)
}

// Update handles PUT /contacts/:id. The payload replaces every mutable
// field; this is not a partial patch.
func (h *ContactHandler) Update(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}
	var req contactUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contact, err := h.Contacts.UpdateByIDAndOwner(ctx, id, u.ID, &model.Contact{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    req.Birthday,
		Description: &req.Description,
	})
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete handles DELETE /contacts/:id and returns the pre-deletion
// snapshot.
func (h *ContactHandler) Delete(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contact, err := h.Contacts.DeleteByIDAndOwner(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, contact)
}

// Birthdays handles GET /contacts/birthdays/ and lists contacts whose
// birthday falls within the next week, today included.
func (h *ContactHandler) Birthdays(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Contacts.UpcomingBirthdays(ctx, u.ID, time.Now().UTC(), birthdayWindowDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, items)
}

// reqContext bounds repository calls to 5 seconds.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
