package main

import (
	"context"
	"log"
	"time"

	"wayfarer/internal/datastore"
	"wayfarer/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ReconcileJob periodically recomputes every owner's journey stats from
// the journey records themselves, healing any drift left behind by writes
// that crashed between the record and its counters.
type ReconcileJob struct {
	Db        *bun.DB
	Container *do.Injector
}

func NewReconcileJob(db *bun.DB, container *do.Injector) *ReconcileJob {
	return &ReconcileJob{
		Db:        db,
		Container: container,
	}
}

func (j *ReconcileJob) Start(cronRunner *cron.Cron) {
	schedule := services.CRONJOB_TIME_RECONCILE_DEFAULT

	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, services.CONFIG_CRONJOB_TIME_RECONCILE_JOURNEY)
	if err != nil {
		log.Println(err)
	} else if timeline != nil && timeline.Value != "" {
		schedule = timeline.Value
	}

	_, err = cronRunner.AddFunc(schedule, j.runScheduledTask)
	log.Println("Reconcile Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
}

func (j *ReconcileJob) runScheduledTask() {
	ctx := context.Background()
	log.Println("Start reconciling journey stats ...")

	serviceJourney, err := do.Invoke[*services.ServiceJourney](j.Container)
	if err != nil {
		log.Println(err)
		return
	}

	owners, err := serviceJourney.RecountAllStats(ctx)
	if err != nil {
		log.Println(err)
		return
	}
	log.Println("Journey stats reconciled for", owners, "owners")
}
