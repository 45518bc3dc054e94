package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

// fakeService is an in-memory stand-in for the lifecycle service, shared by
// the handler tests. It implements DraftLifecycle, SentLifecycle, and
// HistoryLifecycle with just enough behavior to exercise the HTTP layer.
type fakeService struct {
	records map[string]*types.NotificationRecord
	nextID  int

	moveErr    error
	getErr     error
	listErr    error
	historyErr error

	lastStatus        types.NotificationStatus
	lastStatusID      string
	lastException     string
	lastWarning       string
	lastOutcomes      [3]int
	lastOutcomesID    string
	lastHistoryGroups []string
	lastRecentLimit   int
	duplicatedFrom    string
}

func newFakeService() *fakeService {
	return &fakeService{records: map[string]*types.NotificationRecord{}}
}

func svcKey(p types.Partition, id string) string {
	return string(p) + "/" + id
}

func (f *fakeService) put(n *types.NotificationRecord) {
	f.records[svcKey(n.Partition, n.ID)] = n
}

func (f *fakeService) mint() string {
	f.nextID++
	return fmt.Sprintf("key-%03d", f.nextID)
}

func (f *fakeService) CreateDraft(_ context.Context, draft *types.NotificationRecord, createdBy string) (string, error) {
	draft.ID = f.mint()
	draft.Partition = types.PartitionDraft
	draft.CreatedBy = createdBy
	f.put(draft)
	return draft.ID, nil
}

func (f *fakeService) UpdateDraft(_ context.Context, draft *types.NotificationRecord) error {
	if _, ok := f.records[svcKey(types.PartitionDraft, draft.ID)]; !ok {
		return types.NewAppError(types.ErrCodeNotFoundDraft, "draft notification not found", nil)
	}
	draft.Partition = types.PartitionDraft
	f.put(draft)
	return nil
}

func (f *fakeService) DeleteDraft(_ context.Context, id string) error {
	delete(f.records, svcKey(types.PartitionDraft, id))
	return nil
}

func (f *fakeService) Get(_ context.Context, partition types.Partition, id string) (*types.NotificationRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records[svcKey(partition, id)], nil
}

func (f *fakeService) ListDrafts(_ context.Context) ([]*types.NotificationRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.NotificationRecord
	for _, n := range f.records {
		if n.Partition == types.PartitionDraft {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeService) RecentSent(_ context.Context, limit int) ([]*types.NotificationRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.lastRecentLimit = limit
	var out []*types.NotificationRecord
	for _, n := range f.records {
		if n.Partition == types.PartitionSent {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeService) MoveDraftToSent(_ context.Context, draft *types.NotificationRecord) (string, error) {
	sentID := "sent-" + f.mint()
	sent := *draft
	sent.ID = sentID
	sent.Partition = types.PartitionSent
	sent.Status = types.StatusQueued
	f.put(&sent)
	if f.moveErr != nil {
		return sentID, f.moveErr
	}
	delete(f.records, svcKey(types.PartitionDraft, draft.ID))
	return sentID, nil
}

func (f *fakeService) DuplicateDraft(_ context.Context, source *types.NotificationRecord, createdBy string) error {
	f.duplicatedFrom = source.ID
	copyRec := *source
	copyRec.ID = f.mint()
	copyRec.Partition = types.PartitionDraft
	copyRec.CreatedBy = createdBy
	f.put(&copyRec)
	return nil
}

func (f *fakeService) UpdateStatus(_ context.Context, id string, status types.NotificationStatus) error {
	f.lastStatusID = id
	f.lastStatus = status
	return nil
}

func (f *fakeService) RecordException(_ context.Context, id string, errorMessage string) error {
	f.lastException = errorMessage
	return nil
}

func (f *fakeService) RecordWarning(_ context.Context, id string, warningMessage string) error {
	f.lastWarning = warningMessage
	return nil
}

func (f *fakeService) ReportOutcomes(_ context.Context, id string, succeeded, failed, throttled int) error {
	f.lastOutcomesID = id
	f.lastOutcomes = [3]int{succeeded, failed, throttled}
	return nil
}

func (f *fakeService) VisibleSentNotifications(_ context.Context, groupIDs []string) ([]*types.NotificationRecord, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	f.lastHistoryGroups = groupIDs
	var out []*types.NotificationRecord
	for _, n := range f.records {
		if n.Partition == types.PartitionSent && n.Status == types.StatusSent {
			out = append(out, n)
		}
	}
	return out, nil
}

// fakeEnqueuer captures prepare-to-send triggers.
type fakeEnqueuer struct {
	triggeredID   string
	triggeredUser string
	err           error
}

func (f *fakeEnqueuer) TriggerSend(_ context.Context, notificationID string, requestedBy string) error {
	f.triggeredID = notificationID
	f.triggeredUser = requestedBy
	return f.err
}

// fakeResolver returns a fixed group membership.
type fakeResolver struct {
	groups     []string
	err        error
	lookedUpID string
}

func (f *fakeResolver) UserGroups(_ context.Context, userID string) ([]string, error) {
	f.lookedUpID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

// fakeMetrics records the last outcome batch.
type fakeMetrics struct {
	calls [][3]int
}

func (f *fakeMetrics) RecordOutcomes(_ context.Context, succeeded, failed, throttled int) {
	f.calls = append(f.calls, [3]int{succeeded, failed, throttled})
}

// fakeReplyStore is an in-memory ReplyStore.
type fakeReplyStore struct {
	replies map[string][]*types.ReplyRecord
	err     error
}

func newFakeReplyStore() *fakeReplyStore {
	return &fakeReplyStore{replies: map[string][]*types.ReplyRecord{}}
}

func (f *fakeReplyStore) Upsert(_ context.Context, reply *types.ReplyRecord) error {
	if f.err != nil {
		return f.err
	}
	for i, existing := range f.replies[reply.NotificationID] {
		if existing.AuthorID == reply.AuthorID {
			f.replies[reply.NotificationID][i] = reply
			return nil
		}
	}
	f.replies[reply.NotificationID] = append(f.replies[reply.NotificationID], reply)
	return nil
}

func (f *fakeReplyStore) ListByNotification(_ context.Context, notificationID string) ([]*types.ReplyRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.replies[notificationID], nil
}

// newHandlerRouter wires a registrar under /v1 behind the identity
// middleware, matching the production mounting.
func newHandlerRouter(register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(core.IdentityMiddleware)
	r.Route("/v1", register)
	return r
}

// doRequest executes a request against the router, optionally as the given
// user.
func doRequest(t *testing.T, h http.Handler, method, target, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
