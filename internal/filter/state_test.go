package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewState_Defaults(t *testing.T) {
	st := NewState()

	assert.Equal(t, "", st.SearchQuery())
	assert.Equal(t, AllCategories, st.ActiveCategory())
	assert.Equal(t, DateAll, st.DateFilter())
	assert.Equal(t, 1, st.Page())
	assert.True(t, st.IsDefault())
}

func TestState_FilterChangesResetPage(t *testing.T) {
	changes := map[string]func(*State){
		"search":   func(s *State) { s.SetSearchQuery("rust") },
		"category": func(s *State) { s.SetCategory("Tech") },
		"date":     func(s *State) { s.SetDateFilter(DateLast365) },
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			for _, prior := range []int{1, 2, 9, 400} {
				st := NewState()
				st.SetPage(prior)
				change(&st)
				assert.Equal(t, 1, st.Page(), "prior page %d", prior)
			}
		})
	}
}

func TestState_UnchangedValueKeepsPage(t *testing.T) {
	st := NewState()
	st.SetSearchQuery("go")
	st.SetPage(3)

	st.SetSearchQuery("go")
	st.SetCategory(AllCategories)
	st.SetDateFilter(DateAll)

	assert.Equal(t, 3, st.Page())
}

func TestState_EmptyCategoryMeansAll(t *testing.T) {
	st := NewState()
	st.SetCategory("Tech")
	st.SetCategory("")
	assert.Equal(t, AllCategories, st.ActiveCategory())
}

func TestState_Reset(t *testing.T) {
	st := NewState()
	st.SetSearchQuery("x")
	st.SetCategory("Tech")
	st.SetDateFilter(DateLast30)
	st.SetPage(2)

	st.Reset()

	assert.True(t, st.IsDefault())
	assert.Equal(t, DateLast30, st.DateFilter(), "reset leaves the date bucket alone")
	assert.Equal(t, 1, st.Page())
}

func TestDateFilter_StringAndParse(t *testing.T) {
	for _, f := range []DateFilter{DateAll, DateLast30, DateLast365} {
		assert.Equal(t, f, ParseDateFilter(f.String()))
		assert.NotEmpty(t, f.Label())
	}
	assert.Equal(t, DateAll, ParseDateFilter("weekly"))
	assert.Equal(t, DateLast30, DateAll.Next())
	assert.Equal(t, DateLast365, DateLast30.Next())
	assert.Equal(t, DateAll, DateLast365.Next())
}
