package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"workpassport/internal/domain/verification"
	"workpassport/internal/errs"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

type VerificationRepository struct {
	db *gorm.DB
}

var _ ports.VerificationRepository = (*VerificationRepository)(nil)

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *VerificationRepository) Create(ctx context.Context, req verification.Request) (verification.Request, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return verification.Request{}, err
	}

	row := toVerificationRow(req)
	row.ID = 0
	if row.Status == "" {
		row.Status = string(verification.StatusPending)
	}

	if err := db.Create(&row).Error; err != nil {
		return verification.Request{}, errs.Wrap(err, "insert verification request")
	}
	return fromVerificationRow(row), nil
}

func (r *VerificationRepository) Get(ctx context.Context, id uint64) (verification.Request, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return verification.Request{}, err
	}

	var row model.VerificationRequest
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return verification.Request{}, ports.ErrVerificationNotFound
		}
		return verification.Request{}, errs.Wrap(err, "query verification request by id")
	}
	return fromVerificationRow(row), nil
}

func (r *VerificationRepository) ListPending(ctx context.Context) ([]verification.Request, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.VerificationRequest
	if err := db.
		Where("status = ?", string(verification.StatusPending)).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending verification requests")
	}

	items := make([]verification.Request, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromVerificationRow(row))
	}
	return items, nil
}

func (r *VerificationRepository) MarkVerified(ctx context.Context, id uint64, at time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.VerificationRequest{}).
		Where("id = ? AND status = ?", id, string(verification.StatusPending)).
		Updates(map[string]any{
			"status":      string(verification.StatusVerified),
			"verified_at": at,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark verification verified")
	}
	return r.checkTransitionApplied(db, id, result.RowsAffected)
}

func (r *VerificationRepository) MarkRejected(ctx context.Context, id uint64, reason string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.VerificationRequest{}).
		Where("id = ? AND status = ?", id, string(verification.StatusPending)).
		Updates(map[string]any{
			"status":           string(verification.StatusRejected),
			"rejection_reason": reason,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark verification rejected")
	}
	return r.checkTransitionApplied(db, id, result.RowsAffected)
}

// checkTransitionApplied distinguishes "row missing" from "row already
// terminal" when a guarded status update matched nothing.
func (r *VerificationRepository) checkTransitionApplied(db *gorm.DB, id uint64, rowsAffected int64) error {
	if rowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := db.Model(&model.VerificationRequest{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return errs.Wrap(err, "check verification exists")
	}
	if exists == 0 {
		return ports.ErrVerificationNotFound
	}
	return verification.ErrTerminalStatus
}

func toVerificationRow(req verification.Request) model.VerificationRequest {
	return model.VerificationRequest{
		ID:                   req.ID,
		EmployerAddress:      req.EmployerAddress,
		CompanyName:          req.CompanyName,
		Website:              req.Website,
		LinkedinURL:          req.LinkedinURL,
		BusinessRegistration: req.BusinessRegistration,
		Status:               string(req.Status),
		VerifiedAt:           req.VerifiedAt,
		RejectionReason:      req.RejectionReason,
		CreatedAt:            req.CreatedAt,
	}
}

func fromVerificationRow(row model.VerificationRequest) verification.Request {
	return verification.Request{
		ID:                   row.ID,
		EmployerAddress:      row.EmployerAddress,
		CompanyName:          row.CompanyName,
		Website:              row.Website,
		LinkedinURL:          row.LinkedinURL,
		BusinessRegistration: row.BusinessRegistration,
		Status:               verification.Status(row.Status),
		VerifiedAt:           row.VerifiedAt,
		RejectionReason:      row.RejectionReason,
		CreatedAt:            row.CreatedAt,
	}
}
