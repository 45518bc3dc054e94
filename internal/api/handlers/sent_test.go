package handlers

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

func newSentRouter(svc *fakeService, m *fakeMetrics) http.Handler {
	h := NewSentHandler(svc, m, core.NewValidator(), slog.New(slog.DiscardHandler))
	return newHandlerRouter(func(r chi.Router) { h.RegisterRoutes(r) })
}

func TestListSent_DefaultLimit(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodGet, "/v1/sent", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultRecentLimit, svc.lastRecentLimit)
}

func TestListSent_LimitValidation(t *testing.T) {
	for _, limit := range []string{"0", "101", "abc", "-5"} {
		w := doRequest(t, newSentRouter(newFakeService(), &fakeMetrics{}),
			http.MethodGet, "/v1/sent?limit="+limit, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}
}

func TestGetSent_NotFound(t *testing.T) {
	w := doRequest(t, newSentRouter(newFakeService(), &fakeMetrics{}),
		http.MethodGet, "/v1/sent/absent", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), string(types.ErrCodeNotFoundNotification))
}

func TestGetSent_Success(t *testing.T) {
	svc := newFakeService()
	svc.put(&types.NotificationRecord{ID: "s1", Partition: types.PartitionSent, Title: "hello"})

	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodGet, "/v1/sent/s1", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")
}

func TestUpdateStatus_Valid(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/status", `{"status":"Sent"}`, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s1", svc.lastStatusID)
	assert.Equal(t, types.StatusSent, svc.lastStatus)
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/status", `{"status":"Exploded"}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(types.ErrCodeValidationInvalidStatus))
	assert.Empty(t, svc.lastStatusID)
}

func TestReportOutcomes_RecordsAndEmitsMetrics(t *testing.T) {
	svc := newFakeService()
	m := &fakeMetrics{}
	w := doRequest(t, newSentRouter(svc, m),
		http.MethodPost, "/v1/sent/s1/outcomes", `{"succeeded":10,"failed":2,"throttled":1}`, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s1", svc.lastOutcomesID)
	assert.Equal(t, [3]int{10, 2, 1}, svc.lastOutcomes)
	require.Len(t, m.calls, 1)
	assert.Equal(t, [3]int{10, 2, 1}, m.calls[0])
}

func TestReportOutcomes_NegativeRejected(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/outcomes", `{"succeeded":-1}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastOutcomesID)
}

func TestRecordError_AppendsMessage(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/error", `{"message":"card render failed"}`, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "card render failed", svc.lastException)
}

func TestRecordWarning_AppendsMessage(t *testing.T) {
	svc := newFakeService()
	w := doRequest(t, newSentRouter(svc, &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/warning", `{"message":"3 recipients skipped"}`, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "3 recipients skipped", svc.lastWarning)
}

func TestRecordError_MissingMessageRejected(t *testing.T) {
	w := doRequest(t, newSentRouter(newFakeService(), &fakeMetrics{}),
		http.MethodPost, "/v1/sent/s1/error", `{}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
