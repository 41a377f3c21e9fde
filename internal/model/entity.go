package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies where a gestión happened.
type Channel string

const (
	ChannelBot   Channel = "BOT"
	ChannelHuman Channel = "HUMAN"
)

// Sentinels used wherever a dimension has no source value.
const (
	NoService         = "NO_SERVICE"
	NoSegment         = "NO_SEGMENT"
	NoZone            = "NO_ZONE"
	NoAgent           = "NO_AGENT"
	SystemBot         = "SYSTEM_BOT"
	Unidentified      = "UNIDENTIFIED"
	NoLevel1          = "NO_N1"
	NoLevel2          = "NO_N2"
	NoPriorManagement = "NO_PRIOR_MANAGEMENT"
)

// UniverseRow is one assigned account-period with its derived dimensions.
type UniverseRow struct {
	AccountID       string          `json:"account_id"`
	ClientID        int64           `json:"client_id"`
	Phone           string          `json:"phone"`
	Service         string          `json:"service"`
	Segment         string          `json:"segment"`
	Zone            string          `json:"zone"`
	MinExpiry       time.Time       `json:"min_expiry"`
	SourceFile      string          `json:"source_file"`
	AssignedAt      time.Time       `json:"assigned_at"`
	ClosedAt        time.Time       `json:"closed_at"`
	DebtSnapshotAt  time.Time       `json:"debt_snapshot_at"`
	ManagementDays  int             `json:"management_days"`
	Cartera         string          `json:"cartera"`
	ObjRecupero     float64         `json:"obj_recupero"`
	Vencimiento     string          `json:"categoria_vencimiento"`
	Fraccionamiento string          `json:"tipo_fraccionamiento"`
	Exigible        decimal.Decimal `json:"exigible"`
}

// Interaction is a gestión homologated into the canonical schema.
type Interaction struct {
	Seq            int             `json:"seq"`
	ClientID       int64           `json:"client_id"`
	At             time.Time       `json:"at"`
	Channel        Channel         `json:"channel"`
	Outcome        string          `json:"outcome"`
	SubOutcome     string          `json:"sub_outcome"`
	CommitmentText string          `json:"commitment_text"`
	Agent          string          `json:"agent"`
	PromisedAmount decimal.Decimal `json:"promised_amount"`
	PromisedDate   *time.Time      `json:"promised_date,omitempty"`
	Operator       string          `json:"operator"`
	Group          string          `json:"group"`
	Level1         string          `json:"level_1"`
	Level2         string          `json:"level_2"`
	Commitment     bool            `json:"commitment"`
	Effective      bool            `json:"effective"`
}

// ResolvedInteraction is an interaction tied to the universe row that owned
// the client on the interaction date.
type ResolvedInteraction struct {
	Interaction
	Owner         *UniverseRow `json:"-"`
	FirstOfDay    bool         `json:"first_of_day"`
	FirstOfPeriod bool         `json:"first_of_period"`
}

// AttributedPayment is a payment credited to one assignment and at most one
// prior interaction.
type AttributedPayment struct {
	Payment
	ClientID         int64      `json:"client_id"`
	AccountID        string     `json:"account_id"`
	AssignedAt       time.Time  `json:"assigned_at"`
	Cartera          string     `json:"cartera"`
	Service          string     `json:"service"`
	Vencimiento      string     `json:"categoria_vencimiento"`
	Channel          string     `json:"channel"`
	Operator         string     `json:"operator"`
	InteractionAt    *time.Time `json:"interaction_at,omitempty"`
	PromisedDate     *time.Time `json:"promised_date,omitempty"`
	WithPDP          bool       `json:"es_pago_con_pdp"`
	PDPActive        bool       `json:"pdp_estaba_vigente"`
	OnTime           bool       `json:"pago_es_puntual"`
	DaysToPay        *int       `json:"dias_gestion_pago,omitempty"`
	Score            float64    `json:"score_efectividad"`
}
