package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"

	"wayfarer/internal/datastore"
	"wayfarer/internal/docstore"
	"wayfarer/internal/models"
	"wayfarer/internal/pkg/caching"
	"wayfarer/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandInit(),
			commandSetConfig(),
			commandJourneyMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commandInit creates the relational tables and seeds the default configs.
func commandInit() *cli.Command {
	return &cli.Command{
		Name: "init",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUser(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_TRIGGER_RATE_LIMIT_PER_MINUTE, Value: "30"},
				{Key: services.CONFIG_WEATHER_ENRICHMENT, Value: "off"},
				{Key: services.CONFIG_CRONJOB_TIME_RECONCILE_JOURNEY, Value: "@every 1h"},
			}

			for _, config := range configs {
				err = datastore.InsertConfig(ctx, db, config)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// commandSetConfig updates one runtime config value, inserting the row when
// it does not exist yet. Running services see the change once their config
// cache entry expires.
func commandSetConfig() *cli.Command {
	return &cli.Command{
		Name: "set-config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "key",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "value",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			config := models.Config{Key: c.String("key"), Value: c.String("value")}
			err = datastore.InsertConfig(ctx, db, config)
			if err != nil {
				return err
			}

			updated, err := datastore.EditConfig(ctx, db, &config)
			if err != nil {
				return err
			}

			fmt.Printf("config %s = %s\n", updated.Key, updated.Value)
			return nil
		},
	}
}

// commandJourneyMigration moves journey records between the legacy flat
// layout and the per-owner partitioned layout. Without flags it performs the
// forward migration; --dry-run only reports what would move and --rollback
// reverses a previous migration. Verification runs in every mode; a count
// mismatch is printed as a warning, not an error.
func commandJourneyMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate-journeys",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "report what would move without writing",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "move partitioned records back to the flat layout",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("dry-run") && c.Bool("rollback") {
				return fmt.Errorf("--dry-run and --rollback are mutually exclusive")
			}

			mode := services.MigrationMigrate
			if c.Bool("dry-run") {
				mode = services.MigrationDryRun
			}
			if c.Bool("rollback") {
				mode = services.MigrationRollback
			}

			ctx := context.Background()
			container := newContainer()

			rs, err := do.Invoke[*redsync.Redsync](container)
			if err != nil {
				return err
			}

			// one migration at a time, across all operator machines
			mutex := rs.NewMutex(services.LockKeyJourneyMigration())
			if err := mutex.LockContext(ctx); err != nil {
				return services.ErrMigrationLock
			}
			//nolint:errcheck
			defer mutex.UnlockContext(ctx)

			serviceMigration, err := do.Invoke[*services.ServiceMigration](container)
			if err != nil {
				return err
			}

			report, err := serviceMigration.Run(ctx, mode)
			printReport(report)
			if err != nil {
				return err
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

func printReport(report *services.MigrationReport) {
	if report == nil {
		return
	}

	fmt.Printf("mode: %s\n", report.Mode)
	fmt.Printf("records: %d across %d owners\n", report.Records, len(report.OwnerCounts))

	owners := make([]string, 0, len(report.OwnerCounts))
	for ownerID := range report.OwnerCounts {
		owners = append(owners, ownerID)
	}
	sort.Strings(owners)
	for _, ownerID := range owners {
		fmt.Printf("  %s\t%d\n", ownerID, report.OwnerCounts[ownerID])
	}

	fmt.Printf("chunks committed: %d\n", report.ChunksCommitted)
	fmt.Printf("verify: flat=%d partitioned=%d\n", report.FlatCount, report.PartitionedCount)
	if report.Mismatch {
		fmt.Println("WARNING: layout counts disagree, inspect before flipping readers")
	}
}

func newContainer() *do.Injector {
	injector := do.New()

	do.ProvideNamed(injector, "redis-docs", func(i *do.Injector) (redis.UniversalClient, error) {
		clusterDocsRedisURL := os.Getenv("CLUSTER_REDIS_DOCS")
		if clusterDocsRedisURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterDocsRedisURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_DOCS"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
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

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		rs := redsync.New(pool)
		return rs, nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceJourney, error) {
		return services.NewServiceJourney(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceMigration, error) {
		return services.NewServiceMigration(injector)
	})

	return injector
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
