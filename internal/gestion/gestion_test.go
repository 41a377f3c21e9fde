package gestion

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/universe"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func lookups() Lookups {
	return Lookups{
		Bot: []model.BotTaxonomy{
			{Outcome: "CONTACTO_EFECTIVO", SubOutcome: "PROMESA", Commitment: "SI",
				Group: "CD", Level1: "CONTACTO", Level2: "PDP", PDP: true},
		},
		Human: []model.HumanTaxonomy{
			{Outcome: "Contacto Efectivo", Group: "CD", Level1: "CONTACTO", Level2: "COMPROMISO"},
		},
		Operators: []model.OperatorAlias{
			{Username: "jperez", Name: "Juan Perez"},
		},
	}
}

func TestUnify_Bot(t *testing.T) {
	t.Parallel()

	bot := []model.BotRecord{
		{Document: "100", At: at(2025, 6, 2, 9, 0), Outcome: "CONTACTO_EFECTIVO", SubOutcome: "PROMESA", Commitment: "si"},
		{Document: " 200 ", At: at(2025, 6, 2, 9, 5), Outcome: "NO CONTESTA"},
		{Document: "", At: at(2025, 6, 2, 9, 10), Outcome: "X"},
		{Document: "12AB", At: at(2025, 6, 2, 9, 10), Outcome: "X"},
		{Document: "300", At: at(2024, 12, 31, 23, 59), Outcome: "CONTACTO_EFECTIVO"},
	}
	got, st := Unify(bot, nil, lookups())
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, int64(100), first.ClientID)
	assert.Equal(t, model.ChannelBot, first.Channel)
	assert.Equal(t, model.SystemBot, first.Operator)
	assert.Equal(t, model.SystemBot, first.Agent)
	assert.Equal(t, "CD", first.Group)
	assert.Equal(t, "PDP", first.Level2)
	assert.True(t, first.Commitment)
	assert.True(t, first.Effective)

	second := got[1]
	assert.Equal(t, int64(200), second.ClientID)
	assert.Equal(t, "NO CONTESTA", second.Group, "falls back to raw outcome")
	assert.Equal(t, "NO CONTESTA", second.Level1)
	assert.False(t, second.Commitment, "unmatched taxonomy defaults to no commitment")
	assert.False(t, second.Effective)

	assert.Equal(t, 2, st.BadClientID)
	assert.Equal(t, 1, st.BeforeCutoff)
	assert.Equal(t, 2, st.Kept)
	assert.Equal(t, 1, st.BotUnmatched)
}

func TestUnify_BotBeforeCutoffExcluded(t *testing.T) {
	t.Parallel()

	bot := []model.BotRecord{{Document: "1", At: BotValidityCutoff.Add(-time.Second), Outcome: "X"}}
	got, st := Unify(bot, nil, Lookups{})
	assert.Empty(t, got)
	assert.Equal(t, 1, st.BeforeCutoff)

	bot[0].At = BotValidityCutoff
	got, _ = Unify(bot, nil, Lookups{})
	assert.Len(t, got, 1, "cutoff instant itself is valid")
}

func TestUnify_Human(t *testing.T) {
	t.Parallel()

	promised := at(2025, 6, 10, 0, 0)
	human := []model.HumanRecord{
		{Document: "100", At: at(2024, 6, 1, 9, 0), Outcome: "contacto efectivo", Commitment: "Sí",
			Agent: "JPEREZ", PromisedAmount: decimal.NewFromInt(50), PromisedDate: &promised},
		{Document: "101", At: at(2025, 6, 1, 9, 0), Outcome: "", Agent: "mlopez", Commitment: "NO"},
		{Document: "102", At: at(2025, 6, 1, 9, 0), Outcome: "", Agent: "  "},
		{Document: "abc", At: at(2025, 6, 1, 9, 0)},
	}
	got, st := Unify(nil, human, lookups())
	require.Len(t, got, 3)

	assert.Equal(t, model.ChannelHuman, got[0].Channel)
	assert.Equal(t, "Juan Perez", got[0].Operator)
	assert.Equal(t, "COMPROMISO", got[0].Level2)
	assert.True(t, got[0].Commitment)
	assert.True(t, got[0].Effective)
	assert.True(t, decimal.NewFromInt(50).Equal(got[0].PromisedAmount))

	assert.Equal(t, "mlopez", got[1].Operator, "falls back to raw agent")
	assert.Equal(t, model.Unidentified, got[1].Group)
	assert.Equal(t, model.NoLevel1, got[1].Level1)
	assert.Equal(t, model.NoLevel2, got[1].Level2)
	assert.False(t, got[1].Commitment)

	assert.Equal(t, model.NoAgent, got[2].Operator)
	assert.Equal(t, 1, st.BadClientID)
}

func TestUnify_SeqOrder(t *testing.T) {
	t.Parallel()

	bot := []model.BotRecord{{Document: "1", At: at(2025, 6, 1, 10, 0)}}
	human := []model.HumanRecord{{Document: "1", At: at(2025, 6, 1, 9, 0)}}
	got, _ := Unify(bot, human, Lookups{})
	require.Len(t, got, 2)
	assert.Equal(t, model.ChannelBot, got[0].Channel)
	assert.Equal(t, 0, got[0].Seq)
	assert.Equal(t, 1, got[1].Seq)
}

func universeIndex() *universe.Index {
	rows := []model.UniverseRow{
		{AccountID: "A1", ClientID: 1, SourceFile: "f1.txt",
			AssignedAt: at(2025, 6, 1, 0, 0), ClosedAt: at(2025, 6, 30, 0, 0)},
		{AccountID: "A1", ClientID: 1, SourceFile: "f2.txt",
			AssignedAt: at(2025, 7, 1, 0, 0), ClosedAt: at(2025, 7, 31, 0, 0)},
	}
	return universe.NewIndex(rows)
}

func TestResolve_TemporalContainment(t *testing.T) {
	t.Parallel()

	in := []model.Interaction{
		{Seq: 0, ClientID: 1, At: at(2025, 5, 31, 10, 0)},
		{Seq: 1, ClientID: 1, At: at(2025, 6, 30, 20, 0)},
		{Seq: 2, ClientID: 1, At: at(2025, 7, 2, 10, 0)},
		{Seq: 3, ClientID: 9, At: at(2025, 6, 2, 10, 0)},
	}
	got, dropped := Resolve(in, universeIndex())
	require.Len(t, got, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "f1.txt", got[0].Owner.SourceFile)
	assert.Equal(t, "f2.txt", got[1].Owner.SourceFile)
}

func TestMarkFirstContacts_SameDay(t *testing.T) {
	t.Parallel()

	in := []model.Interaction{
		{Seq: 0, ClientID: 1, At: at(2025, 6, 2, 15, 0)},
		{Seq: 1, ClientID: 1, At: at(2025, 6, 2, 9, 0)},
		{Seq: 2, ClientID: 1, At: at(2025, 6, 3, 9, 0)},
		{Seq: 3, ClientID: 1, At: at(2025, 7, 3, 9, 0)},
	}
	rs, _ := Resolve(in, universeIndex())
	MarkFirstContacts(rs)
	require.Len(t, rs, 4)

	// sorted by timestamp: 06-02 09:00, 06-02 15:00, 06-03, 07-03
	assert.Equal(t, 1, rs[0].Seq)
	assert.True(t, rs[0].FirstOfDay)
	assert.False(t, rs[1].FirstOfDay)
	assert.True(t, rs[2].FirstOfDay)
	assert.True(t, rs[3].FirstOfDay)

	assert.True(t, rs[0].FirstOfPeriod)
	assert.False(t, rs[1].FirstOfPeriod)
	assert.False(t, rs[2].FirstOfPeriod)
	assert.True(t, rs[3].FirstOfPeriod, "new assignment period")
}

func TestMarkFirstContacts_TieBySeq(t *testing.T) {
	t.Parallel()

	same := at(2025, 6, 2, 9, 0)
	in := []model.Interaction{
		{Seq: 5, ClientID: 1, At: same},
		{Seq: 2, ClientID: 1, At: same},
	}
	rs, _ := Resolve(in, universeIndex())
	MarkFirstContacts(rs)
	assert.Equal(t, 2, rs[0].Seq)
	assert.True(t, rs[0].FirstOfDay)
	assert.False(t, rs[1].FirstOfDay)
}
