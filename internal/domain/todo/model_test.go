package todo_test

import (
	"testing"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	open := todo.Item{ID: "a"}
	done := todo.Item{ID: "b", Completed: true}

	require.True(t, todo.FilterAll.Matches(open))
	require.True(t, todo.FilterAll.Matches(done))
	require.True(t, todo.FilterActive.Matches(open))
	require.False(t, todo.FilterActive.Matches(done))
	require.False(t, todo.FilterCompleted.Matches(open))
	require.True(t, todo.FilterCompleted.Matches(done))
}

func TestParseFilter(t *testing.T) {
	f, err := todo.ParseFilter("")
	require.NoError(t, err)
	require.Equal(t, todo.FilterAll, f)

	f, err = todo.ParseFilter("completed")
	require.NoError(t, err)
	require.Equal(t, todo.FilterCompleted, f)

	_, err = todo.ParseFilter("archived")
	require.ErrorIs(t, err, todo.ErrInvalidInput)
}

func TestProject_FiltersAndOrdersNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	items := []todo.Item{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(time.Hour), Completed: true},
	}

	all := todo.Project(items, todo.FilterAll)
	require.Equal(t, []string{"new", "mid", "old"}, ids(all))

	active := todo.Project(items, todo.FilterActive)
	require.Equal(t, []string{"new", "old"}, ids(active))

	// input untouched
	require.Equal(t, "old", items[0].ID)
}

func TestCount(t *testing.T) {
	stats := todo.Count([]todo.Item{{Completed: true}, {}, {}})
	require.Equal(t, todo.Stats{Total: 3, Completed: 1, Active: 2}, stats)
}

func ids(items []todo.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
