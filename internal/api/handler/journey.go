package handler

import (
	"wayfarer/internal/models"
	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupJourney struct {
	container *do.Injector
}

// Upsert saves a journey. Unlike badge bookkeeping, a failed save IS
// surfaced to the caller: losing a journey record is user-visible data loss.
func (gr *groupJourney) Upsert(c echo.Context) error {
	serviceJourney, err := do.Invoke[*services.ServiceJourney](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var input models.JourneyInput
	if err := c.Bind(&input); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	journey, err := serviceJourney.Upsert(c.Request().Context(), user.ID, &input)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, journey, nil)
}

func (gr *groupJourney) List(c echo.Context) error {
	serviceJourney, err := do.Invoke[*services.ServiceJourney](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	journeys, err := serviceJourney.ListByOwner(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, journeys, nil)
}

func (gr *groupJourney) ListByDate(c echo.Context) error {
	serviceJourney, err := do.Invoke[*services.ServiceJourney](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	journeys, err := serviceJourney.ListByDate(c.Request().Context(), user.ID, c.Param("date"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, journeys, nil)
}

func (gr *groupJourney) Remove(c echo.Context) error {
	serviceJourney, err := do.Invoke[*services.ServiceJourney](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	err = serviceJourney.Remove(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "ok", nil)
}

func (gr *groupJourney) Stats(c echo.Context) error {
	serviceJourney, err := do.Invoke[*services.ServiceJourney](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	stats, err := serviceJourney.Stats(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, stats, nil)
}
