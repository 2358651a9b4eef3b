package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pders01/gazette/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ids(articles []*storage.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ID)
	}
	return out
}

func sampleArticles() []*storage.Article {
	return []*storage.Article{
		{ID: "1", Title: "Go Concurrency Patterns", Excerpt: "Channels and select", Author: "Rob", Category: "Tech", Date: "2025-06-01"},
		{ID: "2", Title: "Sourdough at Home", Excerpt: "A slow ferment", Author: "Marta", Category: "Food", Date: "2025-05-01"},
		{ID: "3", Title: "Travel Notes", Excerpt: "Trains across GO-land", Author: "Ana", Category: "Travel", Date: "not a date"},
		{ID: "4", Title: "Gardening", Excerpt: "Tomatoes", Author: "Gopher Jones", Category: "Life", Date: "2024-01-10"},
	}
}

func TestFilter_Search(t *testing.T) {
	articles := sampleArticles()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"go", []string{"1", "3", "4"}},
		{"CHANNELS", []string{"1"}},
		{"marta", []string{"2"}},
		{"nothing matches", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(Filter(articles, tt.query, AllCategories))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFilter_Category(t *testing.T) {
	articles := sampleArticles()

	assert.Len(t, Filter(articles, "", AllCategories), 4)
	assert.Equal(t, []string{"2"}, ids(Filter(articles, "", "Food")))
	assert.Empty(t, Filter(articles, "", "food"), "category match is case-sensitive")
	assert.Equal(t, []string{"1"}, ids(Filter(articles, "go", "Tech")))
}

func TestFilter_CategoryNamedAllIsNeverAFilter(t *testing.T) {
	articles := []*storage.Article{{ID: "a", Category: "All"}, {ID: "b", Category: "Tech"}}
	assert.Equal(t, []string{"a", "b"}, ids(Filter(articles, "", AllCategories)))
}

func TestDisplay_FeaturedExclusion(t *testing.T) {
	articles := sampleArticles()
	st := NewState()

	got := Display(articles, st, "2")
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Display(articles, st, "")))

	st.SetSearchQuery("o")
	assert.Equal(t, ids(articles), ids(Display(articles, st, "2")), "search disables hero exclusion")

	st = NewState()
	st.SetCategory("Food")
	assert.Equal(t, ids(articles), ids(Display(articles, st, "2")), "category disables hero exclusion")
}

func TestByDate_Boundaries(t *testing.T) {
	exactly30 := fixedNow.Add(-30 * 24 * time.Hour)
	justOver30 := exactly30.Add(-time.Second)

	articles := []*storage.Article{
		{ID: "edge", Date: exactly30.Format(time.RFC3339)},
		{ID: "over", Date: justOver30.Format(time.RFC3339)},
		{ID: "bad", Date: "someday"},
		{ID: "future", Date: fixedNow.Add(48 * time.Hour).Format(time.RFC3339)},
	}

	assert.Equal(t, []string{"edge", "bad", "future"}, ids(ByDate(articles, DateLast30, fixedNow)))
	assert.Equal(t, []string{"edge", "over", "bad", "future"}, ids(ByDate(articles, DateLast365, fixedNow)))
	assert.Equal(t, []string{"edge", "over", "bad", "future"}, ids(ByDate(articles, DateAll, fixedNow)))
}

func TestByDate_Last365(t *testing.T) {
	articles := sampleArticles()
	got := ByDate(articles, DateLast365, fixedNow)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestSortByDate_StableAndUnparseableLast(t *testing.T) {
	articles := []*storage.Article{
		{ID: "old", Date: "2020-01-01"},
		{ID: "bad1", Date: "??"},
		{ID: "new-a", Date: "2025-01-01"},
		{ID: "bad2", Date: ""},
		{ID: "new-b", Date: "2025-01-01"},
	}

	got := SortByDate(articles)
	assert.Equal(t, []string{"new-a", "new-b", "old", "bad1", "bad2"}, ids(got))
	assert.Equal(t, "old", articles[0].ID, "input must not be reordered")
}

func TestPaginate(t *testing.T) {
	make20 := func(n int) []*storage.Article {
		out := make([]*storage.Article, n)
		for i := range out {
			out[i] = &storage.Article{ID: fmt.Sprintf("a%02d", i)}
		}
		return out
	}

	tests := []struct {
		name      string
		count     int
		requested int
		wantPage  int
		wantTotal int
		wantLen   int
	}{
		{"empty", 0, 1, 1, 1, 0},
		{"empty overflow", 0, 7, 1, 1, 0},
		{"first page", 20, 1, 1, 3, 9},
		{"last partial page", 20, 3, 3, 3, 2},
		{"overflow clamps", 20, 5, 3, 3, 2},
		{"zero clamps up", 20, 0, 1, 3, 9},
		{"negative clamps up", 20, -4, 1, 3, 9},
		{"exact multiple", 18, 2, 2, 2, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(make20(tt.count), tt.requested)
			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, tt.wantTotal, p.TotalPages)
			assert.Len(t, p.Items, tt.wantLen)
			assert.Equal(t, tt.count, p.TotalCount)
			assert.Equal(t, tt.requested, p.Requested)
		})
	}
}

func TestPaginate_ClampProperty(t *testing.T) {
	for count := 0; count <= 40; count++ {
		list := make([]*storage.Article, count)
		for i := range list {
			list[i] = &storage.Article{ID: fmt.Sprint(i)}
		}
		for requested := -3; requested <= 8; requested++ {
			p := Paginate(list, requested)
			maxPage := (count + PageSize - 1) / PageSize
			if maxPage < 1 {
				maxPage = 1
			}
			require.GreaterOrEqual(t, p.Number, 1)
			require.LessOrEqual(t, p.Number, maxPage)

			want := count - (p.Number-1)*PageSize
			if want > PageSize {
				want = PageSize
			}
			if want < 0 {
				want = 0
			}
			require.Len(t, p.Items, want, "count=%d requested=%d", count, requested)
		}
	}
}

func TestDerive_Scenario(t *testing.T) {
	articles := make([]*storage.Article, 20)
	for i := range articles {
		articles[i] = &storage.Article{
			ID:       fmt.Sprintf("a%02d", i),
			Title:    fmt.Sprintf("Story %d", i),
			Category: "News",
			Date:     fixedNow.Add(-time.Duration(i*3) * 24 * time.Hour).Format("2006-01-02"),
		}
	}
	articles[4].Featured = true

	featured := storage.Featured(articles)
	require.NotNil(t, featured)

	st := NewState()
	res := Derive(articles, st, featured.ID, fixedNow)

	assert.Len(t, res.Display, 19)
	assert.NotContains(t, ids(res.Display), "a04")
	assert.Equal(t, 3, res.Archive.TotalPages)
	assert.Len(t, res.Archive.Items, 9)
	assert.Equal(t, "a00", res.Archive.Items[0].ID)

	st.SetDateFilter(DateLast30)
	res = Derive(articles, st, featured.ID, fixedNow)
	// dates are midnight and now is noon, so i == 10 falls just outside
	assert.Len(t, res.ArchiveByDate, 10)
	assert.Equal(t, 2, res.Archive.TotalPages)
}

func TestDerive_OverflowScenario(t *testing.T) {
	articles := make([]*storage.Article, 12)
	for i := range articles {
		articles[i] = &storage.Article{ID: fmt.Sprint(i), Date: "2025-01-01"}
	}

	st := NewState()
	st.SetPage(5)
	res := Derive(articles, st, "", fixedNow)

	assert.Equal(t, 2, res.Archive.Number)
	assert.Len(t, res.Archive.Items, 3)
	assert.False(t, res.Archive.HasNext())
	assert.True(t, res.Archive.HasPrev())
}

func TestDerive_Idempotent(t *testing.T) {
	articles := sampleArticles()
	st := NewState()
	st.SetSearchQuery("o")

	first := Derive(articles, st, "1", fixedNow)
	second := Derive(articles, st, "1", fixedNow)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Derive is not idempotent (-first +second):\n%s", diff)
	}
}

func TestDerive_EmptyInput(t *testing.T) {
	res := Derive(nil, NewState(), "", fixedNow)

	assert.Empty(t, res.Filtered)
	assert.Empty(t, res.Display)
	assert.Empty(t, res.Archive.Items)
	assert.Equal(t, 1, res.Archive.TotalPages)
	assert.Equal(t, 1, res.Archive.Number)
}

func TestParseDate(t *testing.T) {
	valid := []string{
		"2025-06-01",
		"2025-06-01T10:00:00Z",
		"2025-06-01T10:00:00.123+02:00",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"January 2, 2006",
		"Jan 2, 2006",
		"6/1/2025",
	}
	for _, s := range valid {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}

	for _, s := range []string{"", "   ", "yesterday", "2025-13-45"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}
