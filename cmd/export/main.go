package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"wayfarer/internal/datastore"
	"wayfarer/internal/docstore"
	"wayfarer/internal/models"
	"wayfarer/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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
		Name: "export",
		Commands: []*cli.Command{
			commandExport(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commandExport writes an owner's journey records to CSV, newest first.
// Without --owner it pages through every registered user and exports them all.
func commandExport() *cli.Command {
	return &cli.Command{
		Name: "export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "owner",
				Usage: "export only this owner's journeys",
			},
			&cli.StringFlag{
				Name:  "output",
				Value: "./journeys.csv",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			var dbRedis redis.UniversalClient
			var err error

			clusterRedisDocs := os.Getenv("CLUSTER_REDIS_DOCS")
			if clusterRedisDocs != "" {
				clusterOpts, err := redis.ParseClusterURL(clusterRedisDocs)
				if err != nil {
					return err
				}
				dbRedis = redis.NewClusterClient(clusterOpts)
			} else {
				dbRedis, err = db.InitRedis(&db.RedisConfig{
					URL: os.Getenv("REDIS_DOCS"),
				})
				if err != nil {
					return err
				}
			}

			store, err := docstore.NewRedis(dbRedis)
			if err != nil {
				return err
			}

			owners := []string{c.String("owner")}
			if owners[0] == "" {
				postgresDB, err := getDb()
				if err != nil {
					return err
				}
				defer postgresDB.Close()

				owners, err = listAllUserIDs(ctx, postgresDB)
				if err != nil {
					return err
				}
			}

			file, err := os.Create(c.String("output"))
			if err != nil {
				return err
			}
			defer file.Close()

			w := csv.NewWriter(file)
			err = w.Write([]string{"owner_id", "journey_id", "date", "start", "end", "place", "title", "weather", "photos"})
			if err != nil {
				return err
			}

			total := 0
			for _, ownerID := range owners {
				docs, err := store.List(ctx, ownerID, services.COLLECTION_JOURNEYS)
				if err != nil {
					fmt.Println(err)
					continue
				}

				journeys, err := docstore.DecodeAll[models.Journey](docs)
				if err != nil {
					fmt.Println(err)
					continue
				}

				sort.Slice(journeys, func(i, j int) bool {
					if journeys[i].Date != journeys[j].Date {
						return journeys[i].Date > journeys[j].Date
					}
					return journeys[i].TimeRange.Start > journeys[j].TimeRange.Start
				})

				for _, journey := range journeys {
					err = w.Write([]string{
						ownerID,
						journey.ID,
						journey.Date,
						journey.TimeRange.Start,
						journey.TimeRange.End,
						journey.PlaceName,
						journey.Title,
						journey.Weather,
						strconv.Itoa(len(journey.Photos)),
					})
					if err != nil {
						return err
					}
					total++
				}

				fmt.Println("done", ownerID, len(journeys))
			}

			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			fmt.Println("exported", total, "journeys to", c.String("output"))
			return nil
		},
	}
}

const exportPageSize = 100

// listAllUserIDs pages through the users table in registration order.
func listAllUserIDs(ctx context.Context, postgresDB *bun.DB) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += exportPageSize {
		users, err := datastore.GetUsersByLimit(ctx, postgresDB, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		if len(users) < exportPageSize {
			return ids, nil
		}
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
