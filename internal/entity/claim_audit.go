package entity

import (
	"database/sql"

	"github.com/gitbounty-lab/backend/pkg/enum"
)

type AuditLevelType string

var (
	AuditInfo    = enum.New(AuditLevelType("info"))
	AuditFailure = enum.New(AuditLevelType("failure"))
)

// ClaimAudit is the operator-visible trail of the pipeline. Every terminal
// job failure writes one of these before the job is allowed to fail.
type ClaimAudit struct {
	SnowFlakeBase

	RewardID sql.NullString
	Reward   Reward `gorm:"foreignKey:RewardID"`

	JobID   string
	Level   AuditLevelType
	Reason  string
	Message string
}
