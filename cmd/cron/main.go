package main

import (
	"database/sql"
	"log"
	"os"

	"wayfarer/internal/docstore"
	"wayfarer/internal/pkg/caching"
	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}
			container := newContainer()

			cronRunner := cron.New()

			reconcileJob := NewReconcileJob(db, container)
			reconcileJob.Start(cronRunner)
			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func newContainer() *do.Injector {
	injector := do.New()

	do.ProvideNamed(injector, "redis-docs", func(i *do.Injector) (redis.UniversalClient, error) {
		return getRedis("CLUSTER_REDIS_DOCS", "REDIS_DOCS")
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return getRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE")
	})

	do.Provide(injector, func(i *do.Injector) (docstore.Store, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-docs")
		if err != nil {
			return nil, err
		}

		return docstore.NewRedis(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceJourney, error) {
		return services.NewServiceJourney(injector)
	})

	return injector
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}

func getRedis(clusterEnv, urlEnv string) (redis.UniversalClient, error) {
	clusterRedisURL := os.Getenv(clusterEnv)
	if clusterRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv(urlEnv),
	})
}
