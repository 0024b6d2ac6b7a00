package model

import "time"

type VerificationRequest struct {
	ID                   uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	EmployerAddress      string     `gorm:"column:employer_address;type:text;not null;index"`
	CompanyName          string     `gorm:"column:company_name;type:text;not null"`
	Website              string     `gorm:"column:website;type:text;not null"`
	LinkedinURL          *string    `gorm:"column:linkedin_url;type:text"`
	BusinessRegistration *string    `gorm:"column:business_registration;type:text"`
	Status               string     `gorm:"column:status;type:text;not null;default:pending;index"`
	VerifiedAt           *time.Time `gorm:"column:verified_at"`
	RejectionReason      *string    `gorm:"column:rejection_reason;type:text"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null;index"`
}

func (VerificationRequest) TableName() string {
	return "company_verifications"
}
