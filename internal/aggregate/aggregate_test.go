package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyer3/faco-etl/internal/model"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func at(m time.Month, d, h int) time.Time {
	return time.Date(2025, m, d, h, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var june = model.DateRange{Start: day(6, 1), End: day(6, 30)}

func TestUniverse(t *testing.T) {
	t.Parallel()

	base := model.UniverseRow{
		AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
		Segment: "AL VCTO", Zone: "LIMA", Fraccionamiento: "NO_FRACCIONADO", ObjRecupero: 0.15,
		ManagementDays: 30,
	}
	r1, r2, r3, out := base, base, base, base
	r1.AccountID, r1.ClientID, r1.Exigible = "A1", 1, dec("100")
	r2.AccountID, r2.ClientID, r2.Exigible = "A2", 1, dec("33.33")
	r3.AccountID, r3.ClientID, r3.Exigible, r3.Zone = "A3", 2, dec("50"), "NORTE"
	out.AccountID, out.AssignedAt = "A4", day(5, 1)

	got := Universe([]model.UniverseRow{r1, r2, r3, out}, june)
	require.Len(t, got, 2)

	lima := got[0]
	assert.Equal(t, "LIMA", lima.Zone)
	assert.Equal(t, int64(2), lima.Accounts)
	assert.Equal(t, int64(1), lima.Clients)
	assert.True(t, dec("133.33").Equal(lima.Exigible))
	assert.True(t, dec("20").Equal(lima.Target), "0.15 * 133.33 rounded to cents")
	assert.Equal(t, 30, lima.ManagementDays)

	assert.Equal(t, "NORTE", got[1].Zone)
	assert.Equal(t, int64(1), got[1].Accounts)
}

func resolved(owner *model.UniverseRow, seq int, client int64, ts time.Time, opts ...func(*model.ResolvedInteraction)) model.ResolvedInteraction {
	r := model.ResolvedInteraction{
		Interaction: model.Interaction{
			Seq: seq, ClientID: client, At: ts, Channel: model.ChannelHuman,
			Operator: "Juan", Group: "CD", Level1: "CONTACTO", Level2: "PDP",
		},
		Owner: owner,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func TestGestion_ActionVersusUniqueCounts(t *testing.T) {
	t.Parallel()

	owner := &model.UniverseRow{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL"}
	effective := func(r *model.ResolvedInteraction) { r.Effective = true }
	commit := func(amount string) func(*model.ResolvedInteraction) {
		return func(r *model.ResolvedInteraction) {
			r.Commitment = true
			r.PromisedAmount = dec(amount)
		}
	}
	first := func(r *model.ResolvedInteraction) { r.FirstOfDay = true; r.FirstOfPeriod = true }

	rs := []model.ResolvedInteraction{
		resolved(owner, 0, 1, at(6, 2, 9), first, effective, commit("100")),
		resolved(owner, 1, 1, at(6, 2, 15), effective),
		resolved(owner, 2, 2, at(6, 2, 10), first, commit("50")),
		resolved(owner, 3, 3, at(5, 30, 10), first),
		resolved(nil, 4, 4, at(6, 2, 10), first),
	}
	got := Gestion(rs, june, NewBusinessCalendar(false, nil))
	require.Len(t, got, 1)

	f := got[0]
	assert.Equal(t, day(6, 2), f.Date)
	assert.Equal(t, int64(3), f.Interactions)
	assert.Equal(t, int64(2), f.EffectiveContacts)
	assert.Equal(t, int64(2), f.Commitments)
	assert.True(t, dec("150").Equal(f.CommittedAmount))
	assert.Equal(t, int64(2), f.UniqueClients)
	assert.Equal(t, int64(1), f.EffectiveClients)
	assert.Equal(t, int64(2), f.NewClients)
	assert.InDelta(t, 2.0/3.0, *f.EffectiveRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, *f.CommitmentRate, 1e-9)
	assert.InDelta(t, 75.0, *f.AvgCommitment, 1e-9)
	assert.Equal(t, 1, f.BusinessDay)
	require.NotNil(t, f.ComparisonDate)
	assert.Equal(t, day(5, 2), *f.ComparisonDate, "first business day of May")
}

func TestGestion_NoCommitmentsYieldsNullAverage(t *testing.T) {
	t.Parallel()

	owner := &model.UniverseRow{AssignedAt: day(6, 1)}
	got := Gestion([]model.ResolvedInteraction{resolved(owner, 0, 1, at(6, 3, 9))}, june, nil)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].AvgCommitment)
	require.NotNil(t, got[0].ComparisonDate)
	assert.Equal(t, day(5, 5), *got[0].ComparisonDate, "second business day of May")
	require.NotNil(t, got[0].CommitmentRate)
	assert.Zero(t, *got[0].CommitmentRate)
}

func TestGestion_SameClientInTwoChannelsCountsInEach(t *testing.T) {
	t.Parallel()

	owner := &model.UniverseRow{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL"}
	bot := func(r *model.ResolvedInteraction) {
		r.Channel, r.Operator = model.ChannelBot, "VOICEBOT"
		r.FirstOfDay, r.FirstOfPeriod = true, true
	}

	rs := []model.ResolvedInteraction{
		resolved(owner, 0, 7, at(6, 2, 9), bot),
		resolved(owner, 1, 7, at(6, 2, 11)),
		resolved(owner, 2, 7, at(6, 2, 16)),
	}
	got := Gestion(rs, june, nil)
	require.Len(t, got, 2)

	assert.Equal(t, "BOT", got[0].Channel)
	assert.Equal(t, int64(1), got[0].Interactions)
	assert.Equal(t, int64(1), got[0].UniqueClients)
	assert.Equal(t, int64(1), got[0].NewClients)

	assert.Equal(t, "HUMAN", got[1].Channel)
	assert.Equal(t, int64(2), got[1].Interactions)
	assert.Equal(t, int64(1), got[1].UniqueClients)
	assert.Zero(t, got[1].NewClients)
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	base := model.AttributedPayment{
		AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
		Channel: "HUMAN", Operator: "Juan", WithPDP: true, PDPActive: true, OnTime: true, Score: 1.0,
	}
	p1, p2, p3 := base, base, base
	p1.Payment = model.Payment{Document: "D1", PaidAt: at(6, 10, 9), Amount: dec("10.10")}
	p1.ClientID, p1.DaysToPay = 1, ptr(2)
	p2.Payment = model.Payment{Document: "D1", PaidAt: at(6, 10, 18), Amount: dec("5")}
	p2.ClientID, p2.DaysToPay = 1, ptr(4)
	p3.Payment = model.Payment{Document: "D9", PaidAt: at(6, 10, 9), Amount: dec("1")}
	p3.ClientID, p3.Channel, p3.Operator, p3.Score = 9, model.NoPriorManagement, model.NoPriorManagement, 0
	p3.WithPDP, p3.PDPActive, p3.OnTime = false, false, false

	got := Recovery([]model.AttributedPayment{p1, p2, p3})
	require.Len(t, got, 2)

	human := got[0]
	assert.Equal(t, "HUMAN", human.Channel)
	assert.Equal(t, int64(2), human.Payments)
	assert.Equal(t, int64(1), human.Documents)
	assert.Equal(t, int64(1), human.Clients)
	assert.True(t, dec("15.10").Equal(human.Amount))
	assert.InDelta(t, 3.0, *human.AvgDaysToPay, 1e-9)

	none := got[1]
	assert.Equal(t, model.NoPriorManagement, none.Channel)
	assert.Nil(t, none.AvgDaysToPay)
}

func TestExecutive_FullOuterJoin(t *testing.T) {
	t.Parallel()

	u := []model.UniverseFact{
		{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
			Clients: 10, Exigible: dec("1000"), Target: dec("150")},
		{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
			Clients: 10, Exigible: dec("1000"), Target: dec("150"), Zone: "NORTE"},
		{AssignedAt: day(6, 1), Cartera: "OTHER", Vencimiento: "CURRENT", Service: "FIJA"},
	}
	g := []model.GestionFact{
		{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
			Interactions: 40, EffectiveContacts: 10, Commitments: 4, CommittedAmount: dec("400"), NewClients: 5},
		{AssignedAt: day(6, 15), Cartera: "COBRANDING", Vencimiento: "CURRENT", Service: "MOVIL",
			Interactions: 3, NewClients: 1},
	}
	r := []model.RecoveryFact{
		{AssignedAt: day(6, 1), Cartera: "TEMPRANA", Vencimiento: "OVERDUE", Service: "MOVIL",
			Payments: 3, Amount: dec("300")},
	}

	got := Executive(u, g, r)
	require.Len(t, got, 2, "all-zero row dropped")

	full := got[0]
	assert.Equal(t, "TEMPRANA", full.Cartera)
	assert.Equal(t, int64(20), full.UniverseClients)
	assert.True(t, dec("2000").Equal(full.Exigible))
	assert.Equal(t, int64(40), full.Interactions)
	assert.Equal(t, int64(3), full.Payments)
	assert.InDelta(t, 0.25, *full.EffectiveRate, 1e-9)
	assert.InDelta(t, 0.1, *full.CommitmentRate, 1e-9)
	assert.InDelta(t, 100.0, *full.AvgCommitment, 1e-9)
	assert.InDelta(t, 0.25, *full.Contactability, 1e-9)
	assert.InDelta(t, 0.15, *full.RecoveryRate, 1e-9)
	assert.InDelta(t, 1.0, *full.Attainment, 1e-9)

	onlyGestion := got[1]
	assert.Equal(t, "COBRANDING", onlyGestion.Cartera)
	assert.Nil(t, onlyGestion.Contactability)
	assert.Nil(t, onlyGestion.RecoveryRate)
	assert.Nil(t, onlyGestion.Attainment)
	assert.Nil(t, onlyGestion.AvgCommitment)
}
