package lifecycle

import (
	"context"

	"bullhorn/internal/types"
)

// VisibleSentNotifications returns the sent notifications visible to a caller
// who is a member of the given groups: every all-users broadcast, plus every
// record whose groups or teamsGroups selectors contain one of the caller's
// group ids. Only records with terminal status Sent are history-visible;
// Queued and Failed sends are excluded regardless of audience match.
//
// Records matching several of the caller's groups appear once. The scan is a
// full pass over the Sent partition with in-memory filtering; the partition
// is bounded by send volume, not recipient volume, so this stays cheap.
func (s *Service) VisibleSentNotifications(ctx context.Context, groupIDs []string) ([]*types.NotificationRecord, error) {
	records, err := s.store.ScanPartitionByStatus(ctx, types.PartitionSent, types.StatusSent)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to scan sent partition for history", "error", err)
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	var results []*types.NotificationRecord

	include := func(n *types.NotificationRecord) {
		if _, dup := seen[n.ID]; dup {
			return
		}
		seen[n.ID] = struct{}{}
		results = append(results, n)
	}

	for _, n := range records {
		if n.AllUsers {
			include(n)
		}
	}
	for _, groupID := range groupIDs {
		for _, n := range records {
			if n.TargetsGroup(groupID) {
				include(n)
			}
		}
	}

	return results, nil
}
