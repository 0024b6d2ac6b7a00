package model

import "time"

// EmployerReputation is keyed by the lowercased issuer address; the
// repository normalizes before writing.
type EmployerReputation struct {
	EmployerAddress string    `gorm:"column:employer_address;type:text;primaryKey"`
	Score           int64     `gorm:"column:score;not null;default:0"`
	TotalIssued     int64     `gorm:"column:total_issued;not null;default:0"`
	FlaggedCount    int64     `gorm:"column:flagged_count;not null;default:0"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (EmployerReputation) TableName() string {
	return "employer_reputation"
}
