package model

import "time"

type Credential struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	WorkerAddress  string     `gorm:"column:worker_address;type:text;not null;index"`
	IssuerAddress  string     `gorm:"column:issuer_address;type:text;not null;index"`
	Position       string     `gorm:"column:position;type:text;not null"`
	Company        string     `gorm:"column:company;type:text;not null"`
	StartDate      string     `gorm:"column:start_date;type:text;not null"`
	EndDate        *string    `gorm:"column:end_date;type:text"`
	Skills         string     `gorm:"column:skills;type:text;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null;index"`
	CredentialHash string     `gorm:"column:credential_hash;type:text;not null"`
	Signature      string     `gorm:"column:signature;type:text;not null"`
	SignedMessage  string     `gorm:"column:signed_message;type:text;not null"`
	Flagged        bool       `gorm:"column:flagged;not null;default:0"`
	FlagReason     *string    `gorm:"column:flag_reason;type:text"`
	FlaggedAt      *time.Time `gorm:"column:flagged_at"`
	RiskLevel      *string    `gorm:"column:risk_level;type:text"`
}

func (Credential) TableName() string {
	return "credentials"
}
