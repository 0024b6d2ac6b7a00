package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workpassport/internal/errs"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

// AgentKV stores agent checkpoints and bookkeeping in the agent_kv
// table. Values never expire; a checkpoint outlives the process.
type AgentKV struct {
	db *gorm.DB
}

var _ ports.KV = (*AgentKV)(nil)

func NewAgentKV(db *gorm.DB) *AgentKV {
	return &AgentKV{db: db}
}

func (s *AgentKV) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", false, errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var row model.AgentKV
	if err := s.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query agent kv by key")
	}

	return row.Value, true, nil
}

func (s *AgentKV) Set(ctx context.Context, key string, value string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	row := model.AgentKV{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert agent kv key")
	}

	return nil
}

func (s *AgentKV) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if err := s.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.AgentKV{}).Error; err != nil {
		return errs.Wrap(err, "delete agent kv key")
	}
	return nil
}
