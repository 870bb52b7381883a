package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/base-minter/pkg/db/models"
	"github.com/lisanmuaddib/base-minter/pkg/report"
)

// Ledger records outcomes and wallet progress.
type Ledger struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLedger wraps an open database.
func NewLedger(logger *logrus.Logger, db *gorm.DB) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// RecordOutcome inserts one outcome row.
func (l *Ledger) RecordOutcome(ctx context.Context, o report.Outcome) error {
	row := ToModel(o)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// RecordWallet merges labels into the wallet's progress for the run. Existing labels
// are kept.
func (l *Ledger) RecordWallet(ctx context.Context, runID, address string, labels []string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.WalletProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("run_id = ? AND address = ?", runID, address).
			Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load wallet progress: %w", err)
		}

		row := models.WalletProgress{
			RunID:     runID,
			Address:   address,
			Labels:    MergeLabels(existing.Labels, labels),
			UpdatedAt: time.Now().UTC(),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"labels", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert wallet progress: %w", err)
		}

		l.logger.WithFields(logrus.Fields{
			"wallet": address,
			"labels": len(row.Labels),
		}).Debug("Recorded wallet progress")
		return nil
	})
}

// ToModel converts an outcome to its row.
func ToModel(o report.Outcome) models.MintOutcome {
	return models.MintOutcome{
		RunID:     o.RunID,
		Address:   o.Address,
		Wallet:    o.Wallet,
		Target:    o.Target,
		Status:    o.Status.String(),
		TxHash:    o.TxHash,
		Error:     o.Error,
		CreatedAt: o.At,
	}
}

// MergeLabels returns the sorted union of two label sets.
func MergeLabels(existing pq.StringArray, added []string) pq.StringArray {
	set := make(map[string]struct{}, len(existing)+len(added))
	for _, l := range existing {
		set[l] = struct{}{}
	}
	for _, l := range added {
		set[l] = struct{}{}
	}

	merged := make(pq.StringArray, 0, len(set))
	for l := range set {
		merged = append(merged, l)
	}
	sort.Strings(merged)
	return merged
}
