package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UniverseFact is one row of the assignment-universe fact table.
type UniverseFact struct {
	AssignedAt      time.Time       `json:"fecha_asignacion"`
	Cartera         string          `json:"cartera"`
	Vencimiento     string          `json:"categoria_vencimiento"`
	Service         string          `json:"servicio"`
	Segment         string          `json:"segmento"`
	Zone            string          `json:"zona"`
	Fraccionamiento string          `json:"tipo_fraccionamiento"`
	ObjRecupero     float64         `json:"obj_recupero"`
	Accounts        int64           `json:"cuentas"`
	Clients         int64           `json:"clientes_unicos"`
	Exigible        decimal.Decimal `json:"monto_exigible"`
	Target          decimal.Decimal `json:"monto_objetivo"`
	ManagementDays  int             `json:"dias_gestion"`
}

// GestionFact is one row of the gestión aggregate fact table.
type GestionFact struct {
	Date              time.Time       `json:"fecha_gestion"`
	AssignedAt        time.Time       `json:"fecha_asignacion"`
	Cartera           string          `json:"cartera"`
	Vencimiento       string          `json:"categoria_vencimiento"`
	Service           string          `json:"servicio"`
	Channel           string          `json:"canal"`
	Operator          string          `json:"operador"`
	Group             string          `json:"grupo_respuesta"`
	Level1            string          `json:"nivel_1"`
	Level2            string          `json:"nivel_2"`
	Interactions      int64           `json:"gestiones"`
	EffectiveContacts int64           `json:"contactos_efectivos"`
	Commitments       int64           `json:"compromisos"`
	CommittedAmount   decimal.Decimal `json:"monto_comprometido"`
	UniqueClients     int64           `json:"clientes_unicos"`
	EffectiveClients  int64           `json:"clientes_efectivos"`
	NewClients        int64           `json:"clientes_nuevos_periodo"`
	EffectiveRate     *float64        `json:"tasa_contacto_efectivo"`
	CommitmentRate    *float64        `json:"tasa_compromiso"`
	AvgCommitment     *float64        `json:"monto_promedio_compromiso"`
	BusinessDay       int             `json:"dia_habil"`
	// ComparisonDate is the same business day of the previous month, nil
	// when the gestión date precedes its month's first working day.
	ComparisonDate    *time.Time      `json:"fecha_comparacion"`
}

// RecoveryFact is one row of the recovery-attribution fact table.
type RecoveryFact struct {
	PaidAt       time.Time       `json:"fecha_pago"`
	AssignedAt   time.Time       `json:"fecha_asignacion"`
	Cartera      string          `json:"cartera"`
	Vencimiento  string          `json:"categoria_vencimiento"`
	Service      string          `json:"servicio"`
	Channel      string          `json:"canal_atribuido"`
	Operator     string          `json:"operador_atribuido"`
	WithPDP      bool            `json:"es_pago_con_pdp"`
	PDPActive    bool            `json:"pdp_estaba_vigente"`
	OnTime       bool            `json:"pago_es_puntual"`
	Score        float64         `json:"score_efectividad"`
	Payments     int64           `json:"pagos"`
	Documents    int64           `json:"documentos_unicos"`
	Clients      int64           `json:"clientes_unicos"`
	Amount       decimal.Decimal `json:"monto_pagado"`
	AvgDaysToPay *float64        `json:"dias_promedio_gestion_pago"`
}

// ExecutiveFact is one row of the executive KPI table.
type ExecutiveFact struct {
	AssignedAt        time.Time       `json:"fecha_asignacion"`
	Cartera           string          `json:"cartera"`
	Vencimiento       string          `json:"categoria_vencimiento"`
	Service           string          `json:"servicio"`
	UniverseClients   int64           `json:"clientes_universo"`
	Exigible          decimal.Decimal `json:"monto_exigible"`
	Target            decimal.Decimal `json:"monto_objetivo"`
	Interactions      int64           `json:"gestiones"`
	EffectiveContacts int64           `json:"contactos_efectivos"`
	Commitments       int64           `json:"compromisos"`
	CommittedAmount   decimal.Decimal `json:"monto_comprometido"`
	ContactedClients  int64           `json:"clientes_contactados"`
	Payments          int64           `json:"pagos"`
	Recovered         decimal.Decimal `json:"monto_recuperado"`
	EffectiveRate     *float64        `json:"tasa_contacto_efectivo"`
	CommitmentRate    *float64        `json:"tasa_compromiso"`
	AvgCommitment     *float64        `json:"monto_promedio_compromiso"`
	Contactability    *float64        `json:"tasa_contactabilidad"`
	RecoveryRate      *float64        `json:"tasa_recupero"`
	Attainment        *float64        `json:"cumplimiento_objetivo"`
}
