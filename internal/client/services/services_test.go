package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcall-app/eventcall/internal/client/dispatch"
	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

// memStore backs the services with an in-memory file map.
type memStore struct {
	files   map[string][]byte
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) put(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	m.files[path] = data
}

func (m *memStore) GetFile(_ context.Context, path string) (*github.FileContent, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &github.FileContent{Content: data, SHA: "sha-" + path}, nil
}

func (m *memStore) GetFileJSON(ctx context.Context, path string, out any) (bool, error) {
	file, err := m.GetFile(ctx, path)
	if err != nil || file == nil {
		return false, err
	}
	return true, json.Unmarshal(file.Content, out)
}

func (m *memStore) PutFile(_ context.Context, path string, value any, _, _ string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	m.files[path] = data
	return "commit", nil
}

func (m *memStore) DeleteFile(_ context.Context, path, _ string) error {
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memStore) ListFilesUnderPrefix(_ context.Context, prefix string) ([]github.TreeEntry, error) {
	dir := strings.TrimSuffix(prefix, "/") + "/"
	var out []github.TreeEntry
	for path := range m.files {
		if strings.HasPrefix(path, dir) && strings.HasSuffix(path, ".json") {
			out = append(out, github.TreeEntry{Path: path, SHA: "sha-" + path})
		}
	}
	return out, nil
}

func (m *memStore) FetchBlobsJSON(_ context.Context, entries []github.TreeEntry, newItem func() any, collect func(string, any)) error {
	for _, e := range entries {
		item := newItem()
		if err := json.Unmarshal(m.files[e.Path], item); err != nil {
			return err
		}
		collect(e.Path, item)
	}
	return nil
}

type recordingTransport struct {
	err    error
	events []string
}

func (f *recordingTransport) Dispatch(_ context.Context, eventType string, _ any) (*dispatch.Result, error) {
	f.events = append(f.events, eventType)
	if f.err != nil {
		return nil, f.err
	}
	return &dispatch.Result{Success: true}, nil
}

func TestEventCreateDispatchesBeforeWriting(t *testing.T) {
	store := newMemStore()
	tr := &recordingTransport{}
	svc := NewEventService(store, tr, testLogger())

	e, err := svc.Create(context.Background(), &models.Event{Title: "Reunion", Date: "2025-05-01"}, "jane")
	require.NoError(t, err)

	assert.Equal(t, []string{"create_event"}, tr.events)
	assert.NotContains(t, store.files, "events/"+e.ID+".json")
}

func TestEventUpdateRedispatchesSameID(t *testing.T) {
	store := newMemStore()
	store.put(t, "events/evt1.json", &models.Event{ID: "evt1", Title: "Old"})
	tr := &recordingTransport{}
	svc := NewEventService(store, tr, testLogger())

	_, err := svc.Update(context.Background(), &models.Event{ID: "evt1", Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, []string{"update_event"}, tr.events)
}

func TestEventCreateFallsBackToDirectWrite(t *testing.T) {
	store := newMemStore()
	tr := &recordingTransport{err: common.ErrNetwork}
	svc := NewEventService(store, tr, testLogger())

	e, err := svc.Create(context.Background(), &models.Event{Title: "Reunion", Date: "2025-05-01"}, "jane")
	require.NoError(t, err)

	assert.Equal(t, []string{"create_event"}, tr.events)
	assert.Contains(t, store.files, "events/"+e.ID+".json")
}

func TestEventCreateAssignsIDAndTimestamps(t *testing.T) {
	store := newMemStore()
	svc := NewEventService(store, dispatch.NewLocal(testLogger()), testLogger())
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	e, err := svc.Create(context.Background(), &models.Event{Title: "Reunion", Date: "2025-05-01"}, "jane")
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "jane", e.CreatedBy)
	assert.Equal(t, models.EventStatusActive, e.Status)
	assert.Contains(t, store.files, "events/"+e.ID+".json")
}

func TestEventCreateRejectsMissingFields(t *testing.T) {
	svc := NewEventService(newMemStore(), dispatch.NewLocal(testLogger()), testLogger())

	_, err := svc.Create(context.Background(), &models.Event{Date: "2025-05-01"}, "jane")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(context.Background(), &models.Event{Title: "x"}, "jane")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestEventCreateConflictsOnExistingID(t *testing.T) {
	store := newMemStore()
	store.put(t, "events/evt1.json", &models.Event{ID: "evt1"})
	svc := NewEventService(store, dispatch.NewLocal(testLogger()), testLogger())

	_, err := svc.Create(context.Background(), &models.Event{ID: "evt1", Title: "x", Date: "2025-05-01"}, "jane")
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestEventUpdateRequiresExisting(t *testing.T) {
	svc := NewEventService(newMemStore(), dispatch.NewLocal(testLogger()), testLogger())

	_, err := svc.Update(context.Background(), &models.Event{ID: "ghost", Title: "x"})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestEventGetAndList(t *testing.T) {
	store := newMemStore()
	store.put(t, "events/evt1.json", &models.Event{ID: "evt1", Title: "One"})
	store.put(t, "events/evt2.json", &models.Event{ID: "evt2", Title: "Two"})
	svc := NewEventService(store, dispatch.NewLocal(testLogger()), testLogger())

	e, err := svc.Get(context.Background(), "evt1")
	require.NoError(t, err)
	assert.Equal(t, "One", e.Title)

	_, err = svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)

	events, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func rsvpWith(id, email string, attending bool, ts time.Time) *models.RSVP {
	return &models.RSVP{ID: id, Email: email, Attending: &attending, Timestamp: ts}
}

func TestRSVPListMergesLayoutsPerFileWins(t *testing.T) {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.put(t, "rsvps/evt1.json", []*models.RSVP{
		rsvpWith("old1", "a@example.com", false, base),
		rsvpWith("old2", "b@example.com", true, base.Add(time.Hour)),
	})
	store.put(t, "rsvps/evt1/new1.json", rsvpWith("new1", "A@example.com", true, base.Add(2*time.Hour)))

	svc := NewRSVPService(store, testLogger())
	list, err := svc.List(context.Background(), &models.Event{ID: "evt1"})
	require.NoError(t, err)

	require.Len(t, list, 2)
	byEmail := map[string]*models.RSVP{}
	for _, r := range list {
		byEmail[r.NormalizedEmail()] = r
	}
	assert.Equal(t, "new1", byEmail["a@example.com"].ID)
	assert.True(t, *byEmail["a@example.com"].Attending)
	assert.Equal(t, "old2", byEmail["b@example.com"].ID)
}

func TestRSVPListMixedLayoutsAgainstContentStore(t *testing.T) {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	aggregate, err := json.Marshal([]*models.RSVP{rsvpWith("old1", "a@example.com", false, base)})
	require.NoError(t, err)
	perFile, err := json.Marshal(rsvpWith("r1", "b@example.com", true, base.Add(time.Hour)))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/o/r/git/trees/"):
			json.NewEncoder(w).Encode(map[string]any{
				"tree": []map[string]string{
					{"path": "rsvps/evt1.json", "type": "blob", "sha": "agg"},
					{"path": "rsvps/evt1/r1.json", "type": "blob", "sha": "per"},
				},
			})
		case r.URL.Path == "/repos/o/r/contents/rsvps/evt1.json":
			json.NewEncoder(w).Encode(map[string]string{
				"content": base64.StdEncoding.EncodeToString(aggregate),
				"sha":     "aggsha",
			})
		case r.URL.Path == "/repos/o/r/git/blobs/per":
			json.NewEncoder(w).Encode(map[string]string{
				"content":  base64.StdEncoding.EncodeToString(perFile),
				"encoding": "base64",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
		}
	}))
	defer srv.Close()

	client := github.NewClient(github.Options{Owner: "o", Repo: "r", BaseURL: srv.URL, Tokens: github.StaticToken("t")})
	svc := NewRSVPService(github.NewContentStore(client), testLogger())

	list, err := svc.List(context.Background(), &models.Event{ID: "evt1"})
	require.NoError(t, err)
	require.Len(t, list, 2)

	byEmail := map[string]*models.RSVP{}
	for _, r := range list {
		byEmail[r.NormalizedEmail()] = r
	}
	assert.Equal(t, "old1", byEmail["a@example.com"].ID)
	assert.Equal(t, "r1", byEmail["b@example.com"].ID)
}

func TestRSVPListBackfillsIDAndEvent(t *testing.T) {
	store := newMemStore()
	store.put(t, "rsvps/evt1/abc.json", &models.RSVP{Email: "a@example.com"})

	svc := NewRSVPService(store, testLogger())
	list, err := svc.List(context.Background(), &models.Event{ID: "evt1"})
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "abc", list[0].ID)
	assert.Equal(t, "evt1", list[0].EventID)
}

func TestRSVPListRekeysLegacyAnswers(t *testing.T) {
	store := newMemStore()
	store.put(t, "rsvps/evt1/r1.json", &models.RSVP{
		Email:   "a@example.com",
		Answers: map[string]string{"custom_0": "fish"},
	})

	svc := NewRSVPService(store, testLogger())
	event := &models.Event{ID: "evt1", Questions: []models.CustomQuestion{{ID: "q-meal"}}}
	list, err := svc.List(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "fish", list[0].Answers["q-meal"])
}

func TestRSVPFindByEmail(t *testing.T) {
	store := newMemStore()
	store.put(t, "rsvps/evt1/r1.json", &models.RSVP{ID: "r1", Email: "jane@example.com"})

	svc := NewRSVPService(store, testLogger())
	event := &models.Event{ID: "evt1"}

	r, err := svc.FindByEmail(context.Background(), event, " Jane@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)

	_, err = svc.FindByEmail(context.Background(), event, "nobody@example.com")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestRSVPDelete(t *testing.T) {
	store := newMemStore()
	store.put(t, "rsvps/evt1/r1.json", &models.RSVP{ID: "r1"})

	svc := NewRSVPService(store, testLogger())
	require.NoError(t, svc.Delete(context.Background(), "evt1", "r1"))
	assert.Equal(t, []string{"rsvps/evt1/r1.json"}, store.deleted)
}

func TestEventDeleteRemovesRSVPFiles(t *testing.T) {
	store := newMemStore()
	store.put(t, "events/evt1.json", &models.Event{ID: "evt1"})
	store.put(t, "rsvps/evt1/r1.json", &models.RSVP{ID: "r1"})
	store.put(t, "rsvps/evt1/r2.json", &models.RSVP{ID: "r2"})
	store.put(t, "rsvps/evt1.json", []*models.RSVP{{ID: "old"}})

	svc := NewEventService(store, dispatch.NewLocal(testLogger()), testLogger())
	require.NoError(t, svc.Delete(context.Background(), "evt1"))

	assert.NotContains(t, store.files, "events/evt1.json")
	assert.NotContains(t, store.files, "rsvps/evt1/r1.json")
	assert.NotContains(t, store.files, "rsvps/evt1/r2.json")
	assert.NotContains(t, store.files, "rsvps/evt1.json")
}

func TestRSVPDeleteRewritesAggregate(t *testing.T) {
	store := newMemStore()
	store.put(t, "rsvps/evt1.json", []*models.RSVP{{ID: "r1"}, {ID: "r2"}})

	svc := NewRSVPService(store, testLogger())
	require.NoError(t, svc.Delete(context.Background(), "evt1", "r1"))

	var remaining []*models.RSVP
	require.NoError(t, json.Unmarshal(store.files["rsvps/evt1.json"], &remaining))
	require.Len(t, remaining, 1)
	assert.Equal(t, "r2", remaining[0].ID)
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	yes, no := true, false
	list := []*models.RSVP{
		{Attending: &yes, GuestCount: 2, Timestamp: now},
		{Attending: &yes, Timestamp: now},
		{Attending: &no, Timestamp: now},
	}

	s := Summarize(&models.Event{ID: "evt1", Title: "Reunion"}, list)

	assert.Equal(t, 3, s.Responses)
	assert.Equal(t, 2, s.Attending)
	assert.Equal(t, 1, s.Declined)
	assert.Equal(t, 4, s.Headcount)
}
