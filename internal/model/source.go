package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalendarPeriod is one row of the assignment calendar, keyed by file.
type CalendarPeriod struct {
	File           string     `json:"file"`
	AssignedAt     time.Time  `json:"assigned_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	DebtSnapshotAt *time.Time `json:"debt_snapshot_at,omitempty"`
	ManagementDays int        `json:"management_days"`
}

// Assignment is one account delivered in an assignment file.
type Assignment struct {
	AccountID     string     `json:"account_id"`
	ClientID      int64      `json:"client_id"`
	Phone         string     `json:"phone"`
	Service       string     `json:"service"`
	Tranche       string     `json:"tranche"`
	Zone          string     `json:"zone"`
	MinExpiry     *time.Time `json:"min_expiry,omitempty"`
	Fractionation string     `json:"fractionation"`
	SourceFile    string     `json:"source_file"`
}

// DebtFile describes one debt-snapshot file available upstream.
type DebtFile struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DebtSnapshot is one debt document of an account at a snapshot date.
type DebtSnapshot struct {
	AccountID    string          `json:"account_id"`
	Document     string          `json:"document"`
	Exigible     decimal.Decimal `json:"exigible"`
	SourceFile   string          `json:"source_file"`
	SnapshotDate time.Time       `json:"snapshot_date"`
}

// BotRecord is a raw voicebot interaction log row.
type BotRecord struct {
	Document     string     `json:"document"`
	At           time.Time  `json:"at"`
	Outcome      string     `json:"outcome"`
	SubOutcome   string     `json:"sub_outcome"`
	Commitment   string     `json:"commitment"`
	PromisedDate *time.Time `json:"promised_date,omitempty"`
}

// HumanRecord is a raw call-center interaction log row.
type HumanRecord struct {
	Document       string          `json:"document"`
	At             time.Time       `json:"at"`
	Outcome        string          `json:"outcome"`
	SubOutcome     string          `json:"sub_outcome"`
	Commitment     string          `json:"commitment"`
	Agent          string          `json:"agent"`
	PromisedAmount decimal.Decimal `json:"promised_amount"`
	PromisedDate   *time.Time      `json:"promised_date,omitempty"`
}

// BotTaxonomy homologates a bot outcome triple into the response taxonomy.
type BotTaxonomy struct {
	Outcome    string `json:"outcome"`
	SubOutcome string `json:"sub_outcome"`
	Commitment string `json:"commitment"`
	Group      string `json:"group"`
	Level1     string `json:"level_1"`
	Level2     string `json:"level_2"`
	PDP        bool   `json:"pdp"`
}

// HumanTaxonomy homologates a human outcome code into the response taxonomy.
type HumanTaxonomy struct {
	Outcome string `json:"outcome"`
	Group   string `json:"group"`
	Level1  string `json:"level_1"`
	Level2  string `json:"level_2"`
}

// OperatorAlias maps a raw agent username to its canonical operator name.
type OperatorAlias struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Payment is a completed collection against a debt document.
type Payment struct {
	Document string          `json:"document"`
	PaidAt   time.Time       `json:"paid_at"`
	Amount   decimal.Decimal `json:"amount"`
}
