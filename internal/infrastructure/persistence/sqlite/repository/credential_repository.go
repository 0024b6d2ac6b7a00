package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"workpassport/internal/domain/credential"
	"workpassport/internal/errs"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

type CredentialRepository struct {
	db *gorm.DB
}

var _ ports.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *CredentialRepository) Create(ctx context.Context, rec credential.Record) (credential.Record, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return credential.Record{}, err
	}

	row, err := toCredentialRow(rec)
	if err != nil {
		return credential.Record{}, err
	}
	row.ID = 0

	if err := db.Create(&row).Error; err != nil {
		return credential.Record{}, errs.Wrap(err, "insert credential")
	}
	return fromCredentialRow(row)
}

func (r *CredentialRepository) Get(ctx context.Context, id uint64) (credential.Record, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return credential.Record{}, err
	}

	var row model.Credential
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credential.Record{}, ports.ErrCredentialNotFound
		}
		return credential.Record{}, errs.Wrap(err, "query credential by id")
	}
	return fromCredentialRow(row)
}

func (r *CredentialRepository) ListAfterID(ctx context.Context, afterID uint64, limit int) ([]credential.Record, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Credential{}).Where("id > ?", afterID).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Credential
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query credentials after id")
	}

	items := make([]credential.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromCredentialRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func (r *CredentialRepository) MaxID(ctx context.Context) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var maxID uint64
	if err := db.Model(&model.Credential{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error; err != nil {
		return 0, errs.Wrap(err, "query max credential id")
	}
	return maxID, nil
}

func (r *CredentialRepository) CountByIssuerSince(ctx context.Context, issuerAddress string, cutoff time.Time) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Credential{}).
		Where("LOWER(issuer_address) = ? AND created_at > ?", credential.NormalizeAddress(issuerAddress), cutoff).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count credentials by issuer")
	}
	return count, nil
}

func (r *CredentialRepository) MarkFlagged(ctx context.Context, id uint64, reason string, level credential.RiskLevel, flaggedAt time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	levelStr := string(level)
	result := db.Model(&model.Credential{}).
		Where("id = ? AND flagged = ?", id, false).
		Updates(map[string]any{
			"flagged":     true,
			"flag_reason": reason,
			"flagged_at":  flaggedAt,
			"risk_level":  levelStr,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "flag credential")
	}

	// RowsAffected 0 means either missing or already flagged; both are
	// fine for the monitor (flagging is one-way and idempotent), but a
	// missing row is a caller bug worth surfacing.
	if result.RowsAffected == 0 {
		var exists int64
		if err := db.Model(&model.Credential{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return errs.Wrap(err, "check credential exists")
		}
		if exists == 0 {
			return ports.ErrCredentialNotFound
		}
	}
	return nil
}

func toCredentialRow(rec credential.Record) (model.Credential, error) {
	skills, err := json.Marshal(rec.Skills)
	if err != nil {
		return model.Credential{}, errs.Wrap(err, "encode skills")
	}

	var level *string
	if rec.RiskLevel != nil {
		s := string(*rec.RiskLevel)
		level = &s
	}

	return model.Credential{
		ID:             rec.ID,
		WorkerAddress:  rec.WorkerAddress,
		IssuerAddress:  rec.IssuerAddress,
		Position:       rec.Position,
		Company:        rec.Company,
		StartDate:      rec.StartDate,
		EndDate:        rec.EndDate,
		Skills:         string(skills),
		CreatedAt:      rec.CreatedAt,
		CredentialHash: rec.Hash,
		Signature:      rec.Signature,
		SignedMessage:  rec.SignedMessage,
		Flagged:        rec.Flagged,
		FlagReason:     rec.FlagReason,
		FlaggedAt:      rec.FlaggedAt,
		RiskLevel:      level,
	}, nil
}

func fromCredentialRow(row model.Credential) (credential.Record, error) {
	var skills []string
	if row.Skills != "" {
		if err := json.Unmarshal([]byte(row.Skills), &skills); err != nil {
			return credential.Record{}, errs.Wrapf(err, "decode skills for credential %d", row.ID)
		}
	}

	var level *credential.RiskLevel
	if row.RiskLevel != nil {
		l := credential.RiskLevel(*row.RiskLevel)
		level = &l
	}

	return credential.Record{
		ID:            row.ID,
		WorkerAddress: row.WorkerAddress,
		IssuerAddress: row.IssuerAddress,
		Position:      row.Position,
		Company:       row.Company,
		StartDate:     row.StartDate,
		EndDate:       row.EndDate,
		Skills:        skills,
		CreatedAt:     row.CreatedAt,
		Hash:          row.CredentialHash,
		Signature:     row.Signature,
		SignedMessage: row.SignedMessage,
		Flagged:       row.Flagged,
		FlagReason:    row.FlagReason,
		FlaggedAt:     row.FlaggedAt,
		RiskLevel:     level,
	}, nil
}
