package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workpassport/internal/domain/credential"
	"workpassport/internal/errs"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

type ReputationRepository struct {
	db *gorm.DB
}

var _ ports.ReputationRepository = (*ReputationRepository)(nil)

func NewReputationRepository(db *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

func (r *ReputationRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// Accumulate upserts one credential's contribution. The conflict
// branch uses arithmetic assignments so repeat issuers accumulate on
// top of the stored row instead of being overwritten; the store's own
// upsert atomicity is what keeps this safe for the single live agent
// instance this design assumes.
func (r *ReputationRepository) Accumulate(ctx context.Context, employerAddress string, scoreDelta int, oracleSuspicious bool, at time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	var flaggedIncrement int64
	if oracleSuspicious {
		flaggedIncrement = 1
	}

	row := model.EmployerReputation{
		EmployerAddress: credential.NormalizeAddress(employerAddress),
		Score:           int64(scoreDelta),
		TotalIssued:     1,
		FlaggedCount:    flaggedIncrement,
		UpdatedAt:       at,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employer_address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"score":         gorm.Expr("score + excluded.score"),
			"total_issued":  gorm.Expr("total_issued + 1"),
			"flagged_count": gorm.Expr("flagged_count + excluded.flagged_count"),
			"updated_at":    at,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert employer reputation")
	}
	return nil
}

func (r *ReputationRepository) Get(ctx context.Context, employerAddress string) (credential.EmployerReputation, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return credential.EmployerReputation{}, err
	}

	var row model.EmployerReputation
	if err := db.
		Where("employer_address = ?", credential.NormalizeAddress(employerAddress)).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credential.EmployerReputation{}, ports.ErrReputationNotFound
		}
		return credential.EmployerReputation{}, errs.Wrap(err, "query employer reputation")
	}

	return credential.EmployerReputation{
		EmployerAddress: row.EmployerAddress,
		Score:           row.Score,
		TotalIssued:     row.TotalIssued,
		FlaggedCount:    row.FlaggedCount,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}
