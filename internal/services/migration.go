package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"wayfarer/internal/docstore"
	"wayfarer/internal/models"

	"github.com/samber/do"
)

type MigrationMode string

const (
	MigrationDryRun   MigrationMode = "dry-run"
	MigrationMigrate  MigrationMode = "migrate"
	MigrationRollback MigrationMode = "rollback"
)

// MigrationReport is the pre-run summary plus the post-run verification.
type MigrationReport struct {
	Mode             MigrationMode  `json:"mode"`
	OwnerCounts      map[string]int `json:"owner_counts"`
	Records          int            `json:"records"`
	ChunksCommitted  int            `json:"chunks_committed"`
	FlatCount        int            `json:"flat_count"`
	PartitionedCount int            `json:"partitioned_count"`
	Mismatch         bool           `json:"mismatch"`
}

// ServiceMigration relocates journey records between the legacy flat
// collection and the per-owner partitioned layout. Moves are id-preserving
// and byte-preserving: documents travel as read, without re-encoding, so a
// migrate/rollback round trip reproduces the original records exactly.
//
// Writes are chunked under the store's batch ceiling and chunks commit
// sequentially. A chunk failure stops the run; because the writes are
// idempotent by id and the owner stats are recomputed rather than
// incremented, re-running after a partial failure is safe.
type ServiceMigration struct {
	container      *do.Injector
	store          docstore.Store
	serviceJourney *ServiceJourney
}

func NewServiceMigration(container *do.Injector) (*ServiceMigration, error) {
	store, err := do.Invoke[docstore.Store](container)
	if err != nil {
		return nil, err
	}

	serviceJourney, err := do.Invoke[*ServiceJourney](container)
	if err != nil {
		return nil, err
	}

	return &ServiceMigration{container, store, serviceJourney}, nil
}

// Run executes one migration pass in the given mode. Verification always
// runs at the end, even in dry-run mode; a count mismatch is reported in the
// result, never returned as an error.
func (service *ServiceMigration) Run(ctx context.Context, mode MigrationMode) (*MigrationReport, error) {
	report := &MigrationReport{Mode: mode, OwnerCounts: map[string]int{}}

	flat, err := service.store.List(ctx, "", COLLECTION_JOURNEYS)
	if err != nil {
		return report, fmt.Errorf("read flat journey collection: %w", err)
	}

	grouped := map[string][]docstore.Doc{}
	for _, doc := range flat {
		var journey models.Journey
		if err := docstore.Decode(doc.Data, &journey); err != nil {
			return report, fmt.Errorf("decode flat journey %q: %w", doc.ID, err)
		}
		if journey.OwnerID == "" {
			log.Printf("flat journey %q has no owner, skipping", doc.ID)
			continue
		}
		grouped[journey.OwnerID] = append(grouped[journey.OwnerID], doc)
		report.OwnerCounts[journey.OwnerID]++
		report.Records++
	}

	switch mode {
	case MigrationDryRun:
		// read/group/report only, no writes

	case MigrationMigrate:
		if err := service.migrate(ctx, grouped, report); err != nil {
			return report, err
		}

	case MigrationRollback:
		if err := service.rollback(ctx, report); err != nil {
			return report, err
		}

	default:
		return report, fmt.Errorf("unknown migration mode %q", mode)
	}

	service.verify(ctx, report)
	return report, nil
}

// migrate copies every flat record into its owner's subcollection under the
// same record id. Flat records stay in place; readers on the old layout keep
// working until the rollout flips, after which rollback removes the copies.
func (service *ServiceMigration) migrate(ctx context.Context, grouped map[string][]docstore.Doc, report *MigrationReport) error {
	owners := sortedOwners(grouped)

	var ops []docstore.Op
	for _, ownerID := range owners {
		for _, doc := range grouped[ownerID] {
			ops = append(ops, docstore.Op{
				Kind:       docstore.OpPut,
				OwnerID:    ownerID,
				Collection: COLLECTION_JOURNEYS,
				ID:         doc.ID,
				Data:       doc.Data,
			})
		}
	}

	if err := service.commitChunks(ctx, ops, report); err != nil {
		return err
	}

	for _, ownerID := range owners {
		if err := service.serviceJourney.RecountStats(ctx, ownerID); err != nil {
			return fmt.Errorf("recount stats for owner %q: %w", ownerID, err)
		}
	}

	return nil
}

// rollback writes every partitioned record back into the flat collection
// (owner id is already a field on the document) and deletes the partitioned
// copy, the symmetric inverse of migrate.
func (service *ServiceMigration) rollback(ctx context.Context, report *MigrationReport) error {
	owners, err := service.store.ListOwners(ctx, COLLECTION_JOURNEYS)
	if err != nil {
		return fmt.Errorf("list journey owners: %w", err)
	}

	var ops []docstore.Op
	for _, ownerID := range owners {
		docs, err := service.store.List(ctx, ownerID, COLLECTION_JOURNEYS)
		if err != nil {
			return fmt.Errorf("list journeys for owner %q: %w", ownerID, err)
		}
		for _, doc := range docs {
			ops = append(ops,
				docstore.Op{
					Kind:       docstore.OpPut,
					Collection: COLLECTION_JOURNEYS,
					ID:         doc.ID,
					Data:       doc.Data,
				},
				docstore.Op{
					Kind:       docstore.OpDelete,
					OwnerID:    ownerID,
					Collection: COLLECTION_JOURNEYS,
					ID:         doc.ID,
				})
		}
	}

	if err := service.commitChunks(ctx, ops, report); err != nil {
		return err
	}

	for _, ownerID := range owners {
		if err := service.serviceJourney.RecountStats(ctx, ownerID); err != nil {
			return fmt.Errorf("recount stats for owner %q: %w", ownerID, err)
		}
	}

	return nil
}

// commitChunks applies ops in batches under the store ceiling, committing
// each full chunk before starting the next. A failed chunk is reported with
// its index so a re-run can resume; it is not retried automatically.
func (service *ServiceMigration) commitChunks(ctx context.Context, ops []docstore.Op, report *MigrationReport) error {
	for start := 0; start < len(ops); start += docstore.MaxBatchOps {
		end := start + docstore.MaxBatchOps
		if end > len(ops) {
			end = len(ops)
		}
		if err := service.store.BatchWrite(ctx, ops[start:end]); err != nil {
			return fmt.Errorf("commit chunk %d (ops %d-%d): %w", report.ChunksCommitted, start, end-1, err)
		}
		report.ChunksCommitted++
	}
	return nil
}

// verify counts the flat collection and sums the owner subcollections.
// A populated partitioned layout that disagrees with the flat count marks
// the report mismatched; an empty partitioned layout (pre-migration, or
// post-rollback) does not. Diagnostic only, never fatal.
func (service *ServiceMigration) verify(ctx context.Context, report *MigrationReport) {
	flat, err := service.store.List(ctx, "", COLLECTION_JOURNEYS)
	if err != nil {
		log.Println("verify: read flat collection:", err)
		report.Mismatch = true
		return
	}
	report.FlatCount = len(flat)

	owners, err := service.store.ListOwners(ctx, COLLECTION_JOURNEYS)
	if err != nil {
		log.Println("verify: list owners:", err)
		report.Mismatch = true
		return
	}

	total := 0
	for _, ownerID := range owners {
		docs, err := service.store.List(ctx, ownerID, COLLECTION_JOURNEYS)
		if err != nil {
			log.Printf("verify: list journeys for owner %q: %v", ownerID, err)
			report.Mismatch = true
			return
		}
		total += len(docs)
	}
	report.PartitionedCount = total

	report.Mismatch = total != 0 && total != report.FlatCount
	if report.Mismatch {
		log.Printf("verify: count mismatch, flat=%d partitioned=%d", report.FlatCount, total)
	}
}

func sortedOwners(grouped map[string][]docstore.Doc) []string {
	owners := make([]string, 0, len(grouped))
	for ownerID := range grouped {
		owners = append(owners, ownerID)
	}
	sort.Strings(owners)
	return owners
}
