package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullhorn/internal/types"
)

func sentRecord(id string, status types.NotificationStatus, allUsers bool, groups, teamsGroups []string) *types.NotificationRecord {
	return &types.NotificationRecord{
		ID:          id,
		Partition:   types.PartitionSent,
		Status:      status,
		AllUsers:    allUsers,
		Groups:      groups,
		TeamsGroups: teamsGroups,
	}
}

func historyIDs(records []*types.NotificationRecord) []string {
	ids := make([]string, 0, len(records))
	for _, n := range records {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestVisibleSentNotifications_Visibility(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	// R1 broadcast, R2 scoped to g1, R3 group-matched but still queued.
	require.NoError(t, store.Put(ctx, sentRecord("r1", types.StatusSent, true, nil, nil)))
	require.NoError(t, store.Put(ctx, sentRecord("r2", types.StatusSent, false, []string{"g1"}, nil)))
	require.NoError(t, store.Put(ctx, sentRecord("r3", types.StatusQueued, false, []string{"g2"}, nil)))

	got, err := svc.VisibleSentNotifications(ctx, []string{"g1"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"r1", "r2"}, historyIDs(got))
}

func TestVisibleSentNotifications_TeamsGroupsMatch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sentRecord("r1", types.StatusSent, false, nil, []string{"tg1"})))

	got, err := svc.VisibleSentNotifications(ctx, []string{"tg1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, historyIDs(got))
}

func TestVisibleSentNotifications_DeduplicatesAcrossGroups(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	// Matches both caller groups; must appear exactly once.
	require.NoError(t, store.Put(ctx, sentRecord("r1", types.StatusSent, false, []string{"g1", "g2"}, nil)))

	got, err := svc.VisibleSentNotifications(ctx, []string{"g1", "g2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, historyIDs(got))
}

func TestVisibleSentNotifications_NoGroupsStillSeesBroadcasts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sentRecord("r1", types.StatusSent, true, nil, nil)))
	require.NoError(t, store.Put(ctx, sentRecord("r2", types.StatusSent, false, []string{"g1"}, nil)))

	got, err := svc.VisibleSentNotifications(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, historyIDs(got))
}

func TestVisibleSentNotifications_FailedExcluded(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sentRecord("r1", types.StatusFailed, true, nil, nil)))

	got, err := svc.VisibleSentNotifications(ctx, []string{"g1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
