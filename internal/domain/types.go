package domain

import "time"

type UserID string
type ChatID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// LoanStatus is the value stored in a chat's status record.
type LoanStatus string

const (
	StatusApplied  LoanStatus = "APPLIED"
	StatusVerified LoanStatus = "VERIFIED"
	StatusApproved LoanStatus = "APPROVED"
)

type Timestamp = time.Time
