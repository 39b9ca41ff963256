package handler

import (
	"net/http"

	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🧭")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		a := groupAuth{cfg.Container}
		routesAPIv1.POST("/auth/login", a.Login)

		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		u := groupUser{cfg.Container}
		routesAPIv1.GET("/user/me", u.Me)

		b := groupBadge{cfg.Container}
		routesAPIv1.GET("/badges/catalog", b.GetCatalog)
		routesAPIv1.GET("/badges/me", b.GetMyBadges)
		routesAPIv1.POST("/badges/trigger/:trigger", b.CheckTrigger)

		j := groupJourney{cfg.Container}
		routesAPIv1.POST("/journeys", j.Upsert)
		routesAPIv1.GET("/journeys", j.List)
		routesAPIv1.GET("/journeys/stats", j.Stats)
		routesAPIv1.GET("/journeys/date/:date", j.ListByDate)
		routesAPIv1.DELETE("/journeys/:id", j.Remove)

		n := groupNotification{cfg.Container}
		routesAPIv1.GET("/notifications", n.GetFlags)
		routesAPIv1.POST("/notifications/:kind/ack", n.Ack)
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
