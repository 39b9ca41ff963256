package handler

import (
	"errors"

	"wayfarer/internal/interfaces"
	"wayfarer/internal/models"
	"wayfarer/internal/pkg/limiter"
	"wayfarer/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupBadge struct {
	container *do.Injector
}

func (gr *groupBadge) GetCatalog(c echo.Context) error {
	return httpx.RestAbort(c, services.BadgeCatalog(), nil)
}

func (gr *groupBadge) GetMyBadges(c echo.Context) error {
	serviceBadge, err := do.Invoke[*services.ServiceBadge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	badges, err := serviceBadge.GetUserBadges(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, badges, nil)
}

// CheckTrigger evaluates one trigger event for the authenticated user and
// responds with the newly awarded badges, if any.
func (gr *groupBadge) CheckTrigger(c echo.Context) error {
	serviceBadge, err := do.Invoke[*services.ServiceBadge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	ctx := c.Request().Context()

	rateLimiter, err := do.Invoke[interfaces.Limiter](gr.container)
	if err == nil {
		limit := services.TRIGGER_RATE_LIMIT_DEFAULT_PER_MINUTE
		if serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container); err == nil {
			limit, _ = serviceConfig.GetIntConfig(ctx, services.CONFIG_TRIGGER_RATE_LIMIT_PER_MINUTE, limit)
		}
		if err := rateLimiter.Allow(ctx, services.LimitKeyUserTrigger(user.ID), redis_rate.PerMinute(limit)); err != nil {
			if errors.Is(err, limiter.ErrRateLimited) {
				return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
			}
			return httpx.RestAbort(c, nil, err)
		}
	}

	var metadata models.TriggerMetadata
	if err := c.Bind(&metadata); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	trigger := models.TriggerType(c.Param("trigger"))

	awarded, err := serviceBadge.CheckConditions(ctx, user.ID, trigger, metadata)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, awarded, nil)
}
