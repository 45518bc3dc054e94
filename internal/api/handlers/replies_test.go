package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

func newReplyRouter(store *fakeReplyStore, svc *fakeService) http.Handler {
	h := NewReplyHandler(store, svc, core.NewValidator(), slog.New(slog.DiscardHandler))
	return newHandlerRouter(func(r chi.Router) { h.RegisterRoutes(r) })
}

func sentFixture(svc *fakeService) {
	svc.put(&types.NotificationRecord{ID: "s1", Partition: types.PartitionSent, Status: types.StatusSent})
}

func TestUpsertReply_Success(t *testing.T) {
	svc := newFakeService()
	sentFixture(svc)
	store := newFakeReplyStore()

	w := doRequest(t, newReplyRouter(store, svc),
		http.MethodPost, "/v1/sent/s1/replies",
		`{"authorDisplayName":"Dana","comment":"great news"}`, "dana@example.com")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.replies["s1"], 1)
	rep := store.replies["s1"][0]
	assert.Equal(t, "dana@example.com", rep.AuthorID)
	assert.Equal(t, "great news", rep.Comment)
}

func TestUpsertReply_SecondPostReplacesFirst(t *testing.T) {
	svc := newFakeService()
	sentFixture(svc)
	store := newFakeReplyStore()
	router := newReplyRouter(store, svc)

	doRequest(t, router, http.MethodPost, "/v1/sent/s1/replies",
		`{"authorDisplayName":"Dana","comment":"first"}`, "dana@example.com")
	w := doRequest(t, router, http.MethodPost, "/v1/sent/s1/replies",
		`{"authorDisplayName":"Dana","comment":"second"}`, "dana@example.com")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.replies["s1"], 1)
	assert.Equal(t, "second", store.replies["s1"][0].Comment)
}

func TestUpsertReply_RequiresIdentity(t *testing.T) {
	svc := newFakeService()
	sentFixture(svc)

	w := doRequest(t, newReplyRouter(newFakeReplyStore(), svc),
		http.MethodPost, "/v1/sent/s1/replies",
		`{"authorDisplayName":"Dana","comment":"hi"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpsertReply_NotificationMissing(t *testing.T) {
	w := doRequest(t, newReplyRouter(newFakeReplyStore(), newFakeService()),
		http.MethodPost, "/v1/sent/absent/replies",
		`{"authorDisplayName":"Dana","comment":"hi"}`, "dana@example.com")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListReplies_EmptyIsArray(t *testing.T) {
	svc := newFakeService()
	sentFixture(svc)

	w := doRequest(t, newReplyRouter(newFakeReplyStore(), svc),
		http.MethodGet, "/v1/sent/s1/replies", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestExportReplies_CSVFormat(t *testing.T) {
	svc := newFakeService()
	sentFixture(svc)
	store := newFakeReplyStore()
	store.replies["s1"] = []*types.ReplyRecord{
		{NotificationID: "s1", AuthorID: "a1", AuthorDisplayName: "Ana", Comment: "nice"},
		{NotificationID: "s1", AuthorID: "b2", AuthorDisplayName: "Ben", Comment: "thanks; appreciated"},
	}

	w := doRequest(t, newReplyRouter(store, svc),
		http.MethodGet, "/v1/sent/s1/replies/export", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "Replies-s1-")
	assert.Contains(t, disposition, ".csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "AuthorId;AuthorDisplayName;Comment", strings.TrimSpace(lines[0]))
	assert.Equal(t, "a1;Ana;nice", strings.TrimSpace(lines[1]))
	// Field containing the separator is quoted per CSV rules.
	assert.Equal(t, `b2;Ben;"thanks; appreciated"`, strings.TrimSpace(lines[2]))
}
