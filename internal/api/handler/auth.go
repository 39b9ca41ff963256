package handler

import (
	"log"

	"wayfarer/internal/models"
	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAuth struct {
	container *do.Injector
}

type loginRequest struct {
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	PhotoURL     string `json:"photo_url"`
	LanguageCode string `json:"language_code"`
}

type loginResponse struct {
	Token   string         `json:"token"`
	User    *models.User   `json:"user"`
	Awarded []models.Badge `json:"awarded"`
}

// Login issues a bearer token and fires the first_login trigger. Badge
// bookkeeping must never block a login, so trigger failures are swallowed.
func (gr *groupAuth) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	authentication, err := do.Invoke[*services.Authentication](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	ctx := c.Request().Context()

	userAuth := &models.UserFromAuth{
		ID:           req.UserID,
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		LanguageCode: req.LanguageCode,
	}

	user, err := serviceUser.FindOrCreateUser(ctx, userAuth)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	token, err := authentication.CreateToken(userAuth)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	resp := &loginResponse{Token: token, User: user}

	serviceBadge, err := do.Invoke[*services.ServiceBadge](gr.container)
	if err == nil {
		awarded, err := serviceBadge.CheckConditions(ctx, user.ID, models.TriggerFirstLogin, nil)
		if err != nil {
			log.Println("first_login trigger:", err)
		} else {
			resp.Awarded = awarded
		}
	}

	return httpx.RestAbort(c, resp, nil)
}
