// Package storetest holds behaviour checks every store.Store implementation
// must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

// Factory opens a fresh, empty store.
type Factory func(t *testing.T) store.Store

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// Run executes the full suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("AddAndQueryMessages", func(t *testing.T) { testAddAndQuery(t, open(t)) })
	t.Run("DuplicateExternalID", func(t *testing.T) { testDuplicate(t, open(t)) })
	t.Run("MessagesBetween", func(t *testing.T) { testBetween(t, open(t)) })
	t.Run("DeleteMessagesBefore", func(t *testing.T) { testDeleteBefore(t, open(t)) })
	t.Run("Servers", func(t *testing.T) { testServers(t, open(t)) })
	t.Run("ServerStats", func(t *testing.T) { testServerStats(t, open(t)) })
	t.Run("Reports", func(t *testing.T) { testReports(t, open(t)) })
	t.Run("ConcurrentAdds", func(t *testing.T) { testConcurrentAdds(t, open(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open(t)) })
}

func message(ext, server, author, content string, at time.Time) store.Message {
	return store.Message{
		ExternalID: ext,
		ServerID:   server,
		ChannelID:  "general",
		AuthorID:   author,
		Content:    content,
		Timestamp:  at,
	}
}

func testAddAndQuery(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	m := message("m1", "srv", "ann", "machine learning is great", t0)
	m.ReactionCount = 4
	id, err := st.AddMessage(ctx, m)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = st.AddMessage(ctx, message("m2", "srv", "bob", "second", t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = st.AddMessage(ctx, message("m3", "other", "bob", "elsewhere", t0.Add(time.Hour)))
	require.NoError(t, err)

	got, err := st.MessagesSince(ctx, "srv", t0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "m1", got[0].ExternalID)
	assert.Equal(t, "general", got[0].ChannelID)
	assert.Equal(t, "ann", got[0].AuthorID)
	assert.Equal(t, "machine learning is great", got[0].Content)
	assert.Equal(t, 4, got[0].ReactionCount)
	assert.True(t, got[0].Timestamp.Equal(t0), "timestamp %v", got[0].Timestamp)
	assert.Equal(t, "m2", got[1].ExternalID)

	later, err := st.MessagesSince(ctx, "srv", t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "m2", later[0].ExternalID)
}

func testDuplicate(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	_, err := st.AddMessage(ctx, message("dup", "srv", "ann", "first", t0))
	require.NoError(t, err)
	_, err = st.AddMessage(ctx, message("dup", "srv", "ann", "again", t0))
	require.ErrorIs(t, err, internalerr.ErrDuplicate)

	// messages without an external id never collide
	_, err = st.AddMessage(ctx, message("", "srv", "ann", "one", t0))
	require.NoError(t, err)
	_, err = st.AddMessage(ctx, message("", "srv", "ann", "two", t0))
	require.NoError(t, err)

	got, err := st.MessagesSince(ctx, "srv", t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func testBetween(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.AddMessage(ctx, message(fmt.Sprintf("m%d", i), "srv", "ann", "x", t0.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	got, err := st.MessagesBetween(ctx, "srv", t0.Add(time.Hour), t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ExternalID)
	assert.Equal(t, "m2", got[1].ExternalID)
}

func testDeleteBefore(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := st.AddMessage(ctx, message(fmt.Sprintf("m%d", i), "srv", "ann", "x", t0.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	n, err := st.DeleteMessagesBefore(ctx, t0.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := st.MessagesSince(ctx, "srv", t0.AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "m2", left[0].ExternalID)

	n, err = st.DeleteMessagesBefore(ctx, t0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testServers(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	_, err := st.AddMessage(ctx, message("a", "zeta", "ann", "x", t0))
	require.NoError(t, err)
	_, err = st.AddMessage(ctx, message("b", "alpha", "ann", "x", t0))
	require.NoError(t, err)
	_, err = st.AddMessage(ctx, message("c", "alpha", "bob", "x", t0))
	require.NoError(t, err)
	require.NoError(t, st.UpsertServerStats(ctx, store.ServerStats{ServerID: "mid", Date: t0}))

	got, err := st.Servers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, got)
}

func testServerStats(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	day := store.DayOf(t0)
	require.NoError(t, st.UpsertServerStats(ctx, store.ServerStats{ServerID: "srv", Date: day, TotalMessages: 10, ActiveUsers: 3}))
	require.NoError(t, st.UpsertServerStats(ctx, store.ServerStats{ServerID: "srv", Date: day.AddDate(0, 0, 1), TotalMessages: 4, ActiveUsers: 2}))
	// same day again replaces the row
	require.NoError(t, st.UpsertServerStats(ctx, store.ServerStats{ServerID: "srv", Date: t0.Add(5 * time.Hour), TotalMessages: 12, ActiveUsers: 5}))
	require.NoError(t, st.UpsertServerStats(ctx, store.ServerStats{ServerID: "other", Date: day, TotalMessages: 99, ActiveUsers: 9}))

	got, err := st.GetServerStats(ctx, "srv", day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Date.Equal(day))
	assert.EqualValues(t, 12, got[0].TotalMessages)
	assert.EqualValues(t, 5, got[0].ActiveUsers)
	assert.True(t, got[1].Date.Equal(day.AddDate(0, 0, 1)))
	assert.EqualValues(t, 4, got[1].TotalMessages)

	first, err := st.GetServerStats(ctx, "srv", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, first, 1)
}

func testReports(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	_, err := st.GetReport(ctx, "missing")
	require.ErrorIs(t, err, internalerr.ErrNotFound)

	week := store.DayOf(t0)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, st.SaveReport(ctx, store.Report{
			ID:          id,
			ServerID:    "srv",
			WeekStart:   week,
			GeneratedAt: t0.Add(time.Duration(i) * time.Hour),
			Format:      "json",
			Payload:     []byte(fmt.Sprintf(`{"n":%d}`, i)),
		}))
	}
	require.NoError(t, st.SaveReport(ctx, store.Report{ID: "o1", ServerID: "other", WeekStart: week, GeneratedAt: t0, Format: "msgpack", Payload: []byte{0x80}}))

	r, err := st.GetReport(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "srv", r.ServerID)
	assert.Equal(t, "json", r.Format)
	assert.Equal(t, []byte(`{"n":1}`), r.Payload)
	assert.True(t, r.WeekStart.Equal(week))
	assert.True(t, r.GeneratedAt.Equal(t0.Add(time.Hour)))

	list, err := st.ListReports(ctx, "srv", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)

	all, err := st.ListReports(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testConcurrentAdds(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	const workers, perWorker = 4, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ext := fmt.Sprintf("w%d-%d", w, i)
				if _, err := st.AddMessage(ctx, message(ext, "srv", "ann", "x", t0.Add(time.Duration(i)*time.Second))); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := st.MessagesSince(ctx, "srv", t0)
	require.NoError(t, err)
	assert.Len(t, got, workers*perWorker)
}

func testClosed(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Close())
	require.NoError(t, st.Close(), "second Close should be a no-op")

	_, err := st.AddMessage(ctx, message("x", "srv", "ann", "x", t0))
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
	_, err = st.MessagesSince(ctx, "srv", t0)
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
	_, err = st.GetReport(ctx, "x")
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
}
