package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster() []Student {
	a := fixture(StatusNotArrived, FeeUnpaid)
	a.ID, a.Name, a.AccompaniedBy = "a", "Nguyễn Văn An", Alone
	b := fixture(StatusCheckedIn, FeePaid)
	b.ID, b.Name, b.AccompaniedBy = "b", "Trần Thị Bình", "Có (2 người)"
	c := fixture(StatusCheckedOut, FeePaid)
	c.ID, c.Name, c.FeeAmount = "c", "Lê Văn Cường", 150000
	return []Student{a, b, c}
}

func ids(ss []Student) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterPredicate(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"empty", Filter{}, []string{"a", "b", "c"}},
		{"name case-insensitive", Filter{Query: "văn"}, []string{"a", "c"}},
		{"name upper", Filter{Query: "BÌNH"}, []string{"b"}},
		{"status", Filter{Status: StatusCheckedIn}, []string{"b"}},
		{"fee", Filter{FeeStatus: FeePaid}, []string{"b", "c"}},
		{"alone", Filter{Accompanied: AccompaniedAlone}, []string{"a"}},
		{"with parents", Filter{Accompanied: AccompaniedParents}, []string{"b", "c"}},
		{"combined", Filter{Query: "văn", FeeStatus: FeePaid}, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Select(roster(), tt.f.Predicate())))
		})
	}
}

func TestFilterPresets(t *testing.T) {
	f, err := Filter{Query: "văn"}.WithPreset("fee-paid")
	require.NoError(t, err)
	assert.Equal(t, Filter{Query: "văn", FeeStatus: FeePaid}, f)

	f, err = Filter{}.WithPreset("checked-out")
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, f.Status)

	_, err = Filter{}.WithPreset("vip")
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, Filter{Status: "gone"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Filter{Accompanied: "maybe"}.Validate(), ErrValidation)
	assert.NoError(t, Filter{Status: StatusCheckedIn, FeeStatus: FeeUnpaid}.Validate())
}

func TestSummarize(t *testing.T) {
	st := Summarize(roster())
	assert.Equal(t, Stats{
		Total:      3,
		NotArrived: 1,
		CheckedIn:  1,
		CheckedOut: 1,
		FeePaid:    2,
		FeeUnpaid:  1,
		TotalMoney: 350000,
	}, st)
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestRosterStatsIgnoreFilter(t *testing.T) {
	r := Roster{Students: roster(), Filter: Filter{Status: StatusCheckedIn}}
	assert.Len(t, r.Visible(), 1)
	assert.Equal(t, 3, r.Stats().Total)

	s, ok := r.Find("c")
	assert.True(t, ok)
	assert.Equal(t, "Lê Văn Cường", s.Name)
	_, ok = r.Find("zzz")
	assert.False(t, ok)
}

func TestCards(t *testing.T) {
	r := Roster{Students: roster()}
	cards := r.Cards(t0.Add(2*time.Hour + 5*time.Minute))
	require.Len(t, cards, 3)

	assert.Equal(t, Badge{Label: "Chưa đến", Tone: "gray"}, cards[0].StatusBadge)
	assert.Equal(t, "check-in", cards[0].Action)
	assert.Empty(t, cards[0].Elapsed)
	assert.Equal(t, "Chưa đóng phí", cards[0].FeeBadge.Label)

	assert.Equal(t, "2 giờ 5 phút", cards[1].Elapsed)
	assert.Equal(t, "check-out", cards[1].Action)

	assert.Empty(t, cards[2].Elapsed)
	assert.Equal(t, "green", cards[2].StatusBadge.Tone)
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "0 giờ 0 phút", Elapsed(t0, t0.Add(-time.Minute)))
	assert.Equal(t, "0 giờ 59 phút", Elapsed(t0, t0.Add(59*time.Minute+59*time.Second)))
	assert.Equal(t, "25 giờ 0 phút", Elapsed(t0, t0.Add(25*time.Hour)))
}
