package handler

import (
	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupNotification struct {
	container *do.Injector
}

func (gr *groupNotification) GetFlags(c echo.Context) error {
	notifications, err := do.Invoke[*services.NotificationState](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	flags, err := notifications.Flags(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, flags, nil)
}

func (gr *groupNotification) Ack(c echo.Context) error {
	notifications, err := do.Invoke[*services.NotificationState](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	err = notifications.Acknowledge(c.Request().Context(), user.ID, c.Param("kind"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "ok", nil)
}
