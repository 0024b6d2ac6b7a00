package model

import "time"

type AgentAction struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Action    string    `gorm:"column:action;type:text;not null"`
	SubjectID uint64    `gorm:"column:subject_id;not null;index"`
	Details   string    `gorm:"column:details;type:text;not null"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
}

func (AgentAction) TableName() string {
	return "agent_actions"
}
