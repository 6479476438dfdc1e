package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	authmw "github.com/Skotchmaster/contacts_api/internal/middleware/auth"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/service"
	"github.com/Skotchmaster/contacts_api/internal/util"
)

type ContactsHTTP struct {
	Svc *service.ContactService
}

func owner(c echo.Context) (*models.User, error) {
	user := authmw.CurrentUser(c)
	if user == nil {
		return nil, apperr.ErrNotAuthenticated
	}
	return user, nil
}

func contactID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrValidation
	}
	return uint(id), nil
}

func page(c echo.Context) (skip, limit int, err error) {
	skip, limit = 0, util.DefaultLimit
	err = echo.QueryParamsBinder(c).
		Int("skip", &skip).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return 0, 0, apperr.ErrValidation
	}
	return skip, limit, nil
}

func (r *contactRequest) input() (service.ContactInput, error) {
	birthday, err := time.Parse(dateLayout, r.Birthday)
	if err != nil {
		return service.ContactInput{}, apperr.ErrValidation
	}
	return service.ContactInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		Birthday:       birthday,
		AdditionalData: r.AdditionalData,
	}, nil
}

func (h *ContactsHTTP) List(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	skip, limit, err := page(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(c.Request().Context(), user, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContactResponses(items))
}

func (h *ContactsHTTP) Get(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}
	item, err := h.Svc.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContactResponse(item))
}

func (h *ContactsHTTP) Create(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	var req contactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	item, err := h.Svc.Create(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toContactResponse(item))
}

func (h *ContactsHTTP) Update(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}
	var req contactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	item, err := h.Svc.Update(c.Request().Context(), user, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContactResponse(item))
}

func (h *ContactsHTTP) Remove(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}
	if _, err := h.Svc.Remove(c.Request().Context(), user, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContactsHTTP) Search(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	text := c.QueryParam("text")
	if text == "" {
		return apperr.ErrValidation
	}
	skip, limit, err := page(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Search(c.Request().Context(), user, text, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContactResponses(items))
}

func (h *ContactsHTTP) UpcomingBirthdays(c echo.Context) error {
	user, err := owner(c)
	if err != nil {
		return err
	}
	var req birthdaysRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	items, err := h.Svc.UpcomingBirthdays(c.Request().Context(), user, *req.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContactResponses(items))
}
