package warehouse

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/reyer3/faco-etl/internal/model"
)

// Row values are built once in column order with dates as time.Time and
// money as decimal.Decimal, then encoded per dialect.

func universeValues(f model.UniverseFact) []any {
	return []any{
		f.AssignedAt, f.Cartera, f.Vencimiento, f.Service, f.Segment, f.Zone, f.Fraccionamiento,
		f.ObjRecupero, f.Accounts, f.Clients, f.Exigible, f.Target, f.ManagementDays,
	}
}

func gestionValues(f model.GestionFact) []any {
	return []any{
		f.Date, f.AssignedAt, f.Cartera, f.Vencimiento, f.Service, f.Channel, f.Operator, f.Group,
		f.Level1, f.Level2, f.Interactions, f.EffectiveContacts, f.Commitments, f.CommittedAmount,
		f.UniqueClients, f.EffectiveClients, f.NewClients, f.EffectiveRate, f.CommitmentRate,
		f.AvgCommitment, f.BusinessDay, f.ComparisonDate,
	}
}

func recoveryValues(f model.RecoveryFact) []any {
	return []any{
		f.PaidAt, f.AssignedAt, f.Cartera, f.Vencimiento, f.Service, f.Channel, f.Operator,
		f.WithPDP, f.PDPActive, f.OnTime, f.Score, f.Payments, f.Documents, f.Clients, f.Amount,
		f.AvgDaysToPay,
	}
}

func executiveValues(f model.ExecutiveFact) []any {
	return []any{
		f.AssignedAt, f.Cartera, f.Vencimiento, f.Service, f.UniverseClients, f.Exigible, f.Target,
		f.Interactions, f.EffectiveContacts, f.Commitments, f.CommittedAmount, f.ContactedClients,
		f.Payments, f.Recovered, f.EffectiveRate, f.CommitmentRate, f.AvgCommitment,
		f.Contactability, f.RecoveryRate, f.Attainment,
	}
}

type encoder func(Column, any) any

// encodePG targets the binary COPY protocol, which needs pgtype.Numeric
// for NUMERIC columns.
func encodePG(c Column, v any) any {
	switch c.kind {
	case kindDate:
		return dateOnly(v.(time.Time))
	case kindNullDate:
		if t := v.(*time.Time); t != nil {
			return dateOnly(*t)
		}
		return nil
	case kindMoney:
		d := v.(decimal.Decimal)
		return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
	}
	return v
}

// encodeSQLite stores dates and money as text to keep them exact.
func encodeSQLite(c Column, v any) any {
	switch c.kind {
	case kindDate:
		return v.(time.Time).Format(time.DateOnly)
	case kindNullDate:
		if t := v.(*time.Time); t != nil {
			return t.Format(time.DateOnly)
		}
		return nil
	case kindMoney:
		return v.(decimal.Decimal).StringFixed(2)
	}
	return v
}

func encodeRows[T any](t Table, facts []T, values func(T) []any, enc encoder) [][]any {
	out := make([][]any, len(facts))
	for i, f := range facts {
		vals := values(f)
		for j, c := range t.Columns {
			vals[j] = enc(c, vals[j])
		}
		out[i] = vals
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scanner is satisfied by pgx.Rows and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// textDate and textMoney collect date and money columns, which both
// dialects return as text, and parse them after Scan.
type textDate struct {
	s   string
	dst *time.Time
}

type textNullDate struct {
	s   *string
	dst **time.Time
}

type textMoney struct {
	s   string
	dst *decimal.Decimal
}

type textFields struct {
	dates     []*textDate
	nullDates []*textNullDate
	moneys    []*textMoney
}

func (tf *textFields) date(dst *time.Time) *string {
	d := &textDate{dst: dst}
	tf.dates = append(tf.dates, d)
	return &d.s
}

func (tf *textFields) nullDate(dst **time.Time) **string {
	d := &textNullDate{dst: dst}
	tf.nullDates = append(tf.nullDates, d)
	return &d.s
}

func (tf *textFields) money(dst *decimal.Decimal) *string {
	m := &textMoney{dst: dst}
	tf.moneys = append(tf.moneys, m)
	return &m.s
}

func (tf *textFields) parse() error {
	for _, d := range tf.dates {
		t, err := time.Parse(time.DateOnly, d.s)
		if err != nil {
			return eris.Wrapf(err, "warehouse: parse date %q", d.s)
		}
		*d.dst = t
	}
	for _, d := range tf.nullDates {
		if d.s == nil {
			*d.dst = nil
			continue
		}
		t, err := time.Parse(time.DateOnly, *d.s)
		if err != nil {
			return eris.Wrapf(err, "warehouse: parse date %q", *d.s)
		}
		*d.dst = &t
	}
	for _, m := range tf.moneys {
		v, err := decimal.NewFromString(m.s)
		if err != nil {
			return eris.Wrapf(err, "warehouse: parse amount %q", m.s)
		}
		*m.dst = v
	}
	return nil
}

func scanUniverse(s scanner) (model.UniverseFact, error) {
	var f model.UniverseFact
	var tf textFields
	err := s.Scan(
		tf.date(&f.AssignedAt), &f.Cartera, &f.Vencimiento, &f.Service, &f.Segment, &f.Zone,
		&f.Fraccionamiento, &f.ObjRecupero, &f.Accounts, &f.Clients, tf.money(&f.Exigible),
		tf.money(&f.Target), &f.ManagementDays,
	)
	if err != nil {
		return f, eris.Wrap(err, "warehouse: scan universe row")
	}
	return f, tf.parse()
}

func scanGestion(s scanner) (model.GestionFact, error) {
	var f model.GestionFact
	var tf textFields
	err := s.Scan(
		tf.date(&f.Date), tf.date(&f.AssignedAt), &f.Cartera, &f.Vencimiento, &f.Service, &f.Channel,
		&f.Operator, &f.Group, &f.Level1, &f.Level2, &f.Interactions, &f.EffectiveContacts,
		&f.Commitments, tf.money(&f.CommittedAmount), &f.UniqueClients, &f.EffectiveClients,
		&f.NewClients, &f.EffectiveRate, &f.CommitmentRate, &f.AvgCommitment, &f.BusinessDay,
		tf.nullDate(&f.ComparisonDate),
	)
	if err != nil {
		return f, eris.Wrap(err, "warehouse: scan gestion row")
	}
	return f, tf.parse()
}

func scanRecovery(s scanner) (model.RecoveryFact, error) {
	var f model.RecoveryFact
	var tf textFields
	err := s.Scan(
		tf.date(&f.PaidAt), tf.date(&f.AssignedAt), &f.Cartera, &f.Vencimiento, &f.Service, &f.Channel,
		&f.Operator, &f.WithPDP, &f.PDPActive, &f.OnTime, &f.Score, &f.Payments, &f.Documents,
		&f.Clients, tf.money(&f.Amount), &f.AvgDaysToPay,
	)
	if err != nil {
		return f, eris.Wrap(err, "warehouse: scan recovery row")
	}
	return f, tf.parse()
}

func scanExecutive(s scanner) (model.ExecutiveFact, error) {
	var f model.ExecutiveFact
	var tf textFields
	err := s.Scan(
		tf.date(&f.AssignedAt), &f.Cartera, &f.Vencimiento, &f.Service, &f.UniverseClients,
		tf.money(&f.Exigible), tf.money(&f.Target), &f.Interactions, &f.EffectiveContacts,
		&f.Commitments, tf.money(&f.CommittedAmount), &f.ContactedClients, &f.Payments,
		tf.money(&f.Recovered), &f.EffectiveRate, &f.CommitmentRate, &f.AvgCommitment,
		&f.Contactability, &f.RecoveryRate, &f.Attainment,
	)
	if err != nil {
		return f, eris.Wrap(err, "warehouse: scan executive row")
	}
	return f, tf.parse()
}
