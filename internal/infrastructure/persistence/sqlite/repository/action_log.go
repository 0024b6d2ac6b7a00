package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"workpassport/internal/errs"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

// ActionLog persists the append-only audit trail. There are no update
// or delete paths on purpose.
type ActionLog struct {
	db *gorm.DB
}

var _ ports.ActionLog = (*ActionLog)(nil)

func NewActionLog(db *gorm.DB) *ActionLog {
	return &ActionLog{db: db}
}

func (l *ActionLog) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return l.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (l *ActionLog) Append(ctx context.Context, entry ports.ActionEntry) error {
	db, err := l.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.AgentAction{
		Action:    entry.Action,
		SubjectID: entry.SubjectID,
		Details:   entry.Details,
		Timestamp: entry.Timestamp,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append agent action")
	}
	return nil
}

func (l *ActionLog) ListBySubject(ctx context.Context, subjectID uint64) ([]ports.ActionEntry, error) {
	db, err := l.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.AgentAction
	if err := db.
		Where("subject_id = ?", subjectID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query agent actions")
	}

	items := make([]ports.ActionEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ActionEntry{
			Action:    row.Action,
			SubjectID: row.SubjectID,
			Details:   row.Details,
			Timestamp: row.Timestamp,
		})
	}
	return items, nil
}
