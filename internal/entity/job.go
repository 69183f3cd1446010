package entity

import (
	"time"

	"github.com/gitbounty-lab/backend/pkg/enum"
)

type JobTypeType string

var (
	JobTypeParseComment = enum.New(JobTypeType("parse_comment"))
	JobTypeSettleClaim  = enum.New(JobTypeType("settle_claim"))
)

type JobStatusType string

var (
	JobWaiting   = enum.New(JobStatusType("waiting"))
	JobActive    = enum.New(JobStatusType("active"))
	JobCompleted = enum.New(JobStatusType("completed"))
	JobDelayed   = enum.New(JobStatusType("delayed"))
	JobFailed    = enum.New(JobStatusType("failed"))
	JobDead      = enum.New(JobStatusType("dead"))
)

// Job is the durable outbox record of a queued unit of work. The row is
// written in the same transaction as the intent that caused it, before the
// originating event is acknowledged, so a broker outage cannot drop work.
type Job struct {
	Base

	Type JobTypeType

	// IdempotencyKey is derived from the payload; re-delivery of the same
	// event maps onto the same row.
	IdempotencyKey string `gorm:"uniqueIndex"`

	Payload Map

	Status      JobStatusType `gorm:"index"`
	Attempts    int
	MaxAttempts int
	NextRunAt   time.Time
	LastError   string
}
