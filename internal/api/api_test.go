package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/db"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/reminder"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/storage"
	"github.com/phmhse/csmstrack/internal/store"
)

var jakarta = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

var now = time.Date(2024, 7, 1, 9, 0, 0, 0, jakarta)

type fakeUploader struct {
	mu    sync.Mutex
	paths [][]string
	names []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, contentType, name string) (storage.Reference, error) {
	return f.UploadTo(ctx, data, contentType, name, nil)
}

func (f *fakeUploader) UploadTo(_ context.Context, _ []byte, _, name string, path []string) (storage.Reference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.Reference{}, f.err
	}
	f.paths = append(f.paths, path)
	f.names = append(f.names, name)
	return storage.Reference{ID: "file-" + name, Name: name, URL: "https://files.example/" + name}, nil
}

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.sent = append(f.sent, msg)
	return "brevo-1", nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	router http.Handler
	up     *fakeUploader
	mail   *fakeSender
}

func newHarness(t *testing.T, mutate ...func(*StartOpts)) *harness {
	t.Helper()
	gdb := testDB(t)
	h := &harness{t: t, db: gdb, up: &fakeUploader{}, mail: &fakeSender{}}
	opts := StartOpts{
		DB:               gdb,
		Logger:           zaptest.NewLogger(t),
		Calendar:         status.NewCalendar(jakarta),
		Uploader:         h.up,
		Mailer:           h.mail,
		ReportRecipients: []string{"hse@example.com"},
		Timeout:          time.Second,
		Now:              func() time.Time { return now },
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.router = NewRouter(opts)
	return h
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) upload(path, filename string, fields map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(h.t, err)
	_, err = fw.Write([]byte("%PDF-1.4 evidence"))
	require.NoError(h.t, err)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (h *harness) seedProject(name string) *models.Project {
	h.t.Helper()
	p, err := store.CreateProject(context.Background(), h.db, &models.Project{
		Name:      name,
		WellName:  "W-1",
		StartDate: "2024-06-01",
		EndDate:   "2024-12-31",
		PICEmail:  "pic@example.com",
	})
	require.NoError(h.t, err)
	return p
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db is required")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])

	w = h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "csms_")
}

func TestProjects_CreateSeedsChecklist(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/projects", map[string]any{
		"name":       "Rig A",
		"start_date": "2024-06-01",
		"end_date":   "2024-06-30",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Project](t, w)
	require.NotEmpty(t, created.ID)

	w = h.do(http.MethodGet, "/api/projects/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		Name            string        `json:"name"`
		EffectiveStatus status.Status `json:"effective_status"`
		Tasks           []struct {
			Code            string        `json:"code"`
			EffectiveStatus status.Status `json:"effective_status"`
		} `json:"tasks"`
	}](t, w)
	assert.Equal(t, "Rig A", detail.Name)
	assert.Equal(t, status.Overdue, detail.EffectiveStatus, "end date passed without completion")
	require.Len(t, detail.Tasks, len(store.StandardTasks))
	assert.Equal(t, "1.1", detail.Tasks[0].Code)
	assert.Equal(t, status.Upcoming, detail.Tasks[0].EffectiveStatus)
}

func TestProjects_CreateSyncsWorkbookAndSendsDueRigDown(t *testing.T) {
	h := newHarness(t)
	h.router = NewRouter(StartOpts{
		DB:       h.db,
		Logger:   zaptest.NewLogger(t),
		Calendar: status.NewCalendar(jakarta),
		Uploader: h.up,
		Dispatcher: &reminder.Dispatcher{
			DB:       h.db,
			Sender:   h.mail,
			Marks:    reminder.DBMarks{DB: h.db},
			Logger:   zaptest.NewLogger(t),
			Calendar: status.NewCalendar(jakarta),
			Options:  reminder.Options{LookaheadDays: 3, RigDownDays: 2, CompletionThreshold: 80},
			Period:   reminder.PeriodMilestone,
			Now:      func() time.Time { return now },
		},
		Now: func() time.Time { return now },
	})

	w := h.do(http.MethodPost, "/api/projects", map[string]any{
		"name":          "Rig A",
		"start_date":    "2024-06-01",
		"end_date":      "2024-12-31",
		"rig_down_date": "2024-07-02",
		"pic_email":     "pic@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, []string{"CSMS_Report_20240701.xlsx"}, h.up.names)
	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, []string{"pic@example.com"}, h.mail.sent[0].To)
}

func TestProjects_CreateSurvivesSyncFailure(t *testing.T) {
	h := newHarness(t)
	h.up.err = errors.New("drive down")

	w := h.do(http.MethodPost, "/api/projects", map[string]any{"name": "Rig A"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, h.up.names)
}

func TestProjects_Errors(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/projects", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/projects", map[string]any{"name": "X", "start_date": "2024-13-45"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/projects/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "missing")

	w = h.do(http.MethodPut, "/api/projects/missing", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodDelete, "/api/projects/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjects_ListFiltersByEffectiveStatus(t *testing.T) {
	h := newHarness(t)
	h.seedProject("Running")
	_, err := store.CreateProject(context.Background(), h.db, &models.Project{
		Name: "Later", StartDate: "2024-09-01", EndDate: "2024-10-01",
	})
	require.NoError(t, err)

	w := h.do(http.MethodGet, "/api/projects?status=Upcoming", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]projectView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Later", list[0].Name)
}

func TestProjects_UpdateKeepsOmittedFields(t *testing.T) {
	h := newHarness(t)
	p := h.seedProject("Rig A")

	w := h.do(http.MethodPut, "/api/projects/"+p.ID, map[string]any{"id": "other", "pic_name": "Sari"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := store.Get[models.Project](context.Background(), h.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sari", got.PICName)
	assert.Equal(t, "Rig A", got.Name)
}

func TestTasks_ScoreAndFilter(t *testing.T) {
	h := newHarness(t)
	p := h.seedProject("Rig A")
	tasks, err := store.ProjectTasks(context.Background(), h.db, p.ID)
	require.NoError(t, err)
	first := tasks[0]

	w := h.do(http.MethodPut, "/api/tasks/"+first.ID+"/score", map[string]any{"score": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/tasks/"+first.ID+"/score", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/tasks/"+first.ID+"/score", map[string]any{"score": 6})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6, decode[taskView](t, w).Score)

	w = h.do(http.MethodPut, "/api/tasks/"+first.ID, map[string]any{
		"status": "Completed", "start_date": "2024-06-01", "end_date": "2024-06-10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/tasks?project_id="+p.ID+"&status=Completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[[]taskView](t, w)
	require.Len(t, done, 1)
	assert.Equal(t, first.ID, done[0].ID)
}

func TestTasks_AttachmentUsesElementFolder(t *testing.T) {
	h := newHarness(t)
	p := h.seedProject("Rig A")
	tasks, err := store.ProjectTasks(context.Background(), h.db, p.ID)
	require.NoError(t, err)
	first := tasks[0]

	w := h.upload("/api/tasks/"+first.ID+"/attachments", "jsa.pdf", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decode[models.Task](t, w)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "jsa.pdf", got.Attachments[0].Filename)
	assert.Equal(t, "file-jsa.pdf", got.Attachments[0].Reference)
	assert.Equal(t, "https://files.example/jsa.pdf", got.Attachments[0].Extra["url"])
	require.Len(t, h.up.paths, 1)
	assert.Equal(t, storage.TaskFolder("Rig A", first.Code, first.Title), h.up.paths[0])
}

func TestUploads_WithoutStorage(t *testing.T) {
	h := newHarness(t, func(o *StartOpts) { o.Uploader = nil })
	p := h.seedProject("Rig A")

	w := h.upload("/api/projects/"+p.ID+"/docs", "permit.pdf", map[string]string{"doc_name": "Permit"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploads_StorageFailure(t *testing.T) {
	h := newHarness(t)
	h.up.err = errors.New("quota exceeded")
	p := h.seedProject("Rig A")

	w := h.upload("/api/projects/"+p.ID+"/docs", "permit.pdf", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	docs, err := store.List[models.RelatedDoc](context.Background(), h.db, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, docs, "no record without a stored file")
}

func TestDocs_UploadListDelete(t *testing.T) {
	h := newHarness(t)
	p := h.seedProject("Rig A")

	w := h.upload("/api/projects/"+p.ID+"/docs", "permit.pdf", map[string]string{"doc_name": "Work Permit"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[models.RelatedDoc](t, w)
	assert.Equal(t, "Work Permit", doc.DocName)
	assert.Equal(t, "W-1", doc.WellName)
	assert.Equal(t, []string{"Rig A", "Related Documents"}, h.up.paths[0])

	w = h.do(http.MethodGet, "/api/projects/"+p.ID+"/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.RelatedDoc](t, w), 1)

	w = h.do(http.MethodDelete, "/api/docs/"+doc.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.do(http.MethodDelete, "/api/docs/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchedules_CreateAndDone(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/schedules", map[string]any{"project_name": "Rig A"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "at least one milestone is required")

	w = h.do(http.MethodPost, "/api/schedules", map[string]any{
		"project_name":      "Rig A",
		"schedule_type":     models.ScheduleHazidHazop,
		"hazid_hazop_date":  "2024-07-03",
		"assigned_to_email": "hse@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Schedule](t, w)

	w = h.do(http.MethodGet, "/api/schedules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[scheduleView](t, w)
	assert.Equal(t, status.Scheduled, view.EffectiveStatus)
	assert.Len(t, view.Milestones, 6)

	w = h.do(http.MethodPost, "/api/schedules/"+created.ID+"/done", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, status.Done, decode[scheduleView](t, w).EffectiveStatus)
}

func TestComments_LikeAndReply(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/comments", map[string]any{"content": "Audit scheduled", "author_name": "Budi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[models.Comment](t, w)

	for i := 0; i < 2; i++ {
		w = h.do(http.MethodPost, "/api/comments/"+c.ID+"/like", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.EqualValues(t, 2, decode[map[string]any](t, w)["likes"])

	w = h.do(http.MethodPost, "/api/comments/"+c.ID+"/replies", map[string]any{"content": "Noted"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User", decode[models.Reply](t, w).AuthorName)

	w = h.do(http.MethodPost, "/api/comments/missing/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Comment](t, w)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Replies, 1)
}

func TestPB_Statistics(t *testing.T) {
	h := newHarness(t)
	for _, rec := range []map[string]any{
		{"project_id": "prj-1", "period": "2024-01", "score": 70},
		{"project_id": "prj-1", "period": "2024-02", "score": 90},
	} {
		w := h.do(http.MethodPost, "/api/csms-pb", rec)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := h.do(http.MethodGet, "/api/csms-pb/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[[]struct {
		ProjectID string  `json:"project_id"`
		Average   float64 `json:"average_score"`
		Latest    float64 `json:"latest_score"`
		Count     int     `json:"record_count"`
	}](t, w)
	require.Len(t, stats, 1)
	assert.Equal(t, 80.0, stats[0].Average)
	assert.Equal(t, 90.0, stats[0].Latest)
	assert.Equal(t, 2, stats[0].Count)
}

func TestReports_Download(t *testing.T) {
	h := newHarness(t)
	p := h.seedProject("Rig A")

	w := h.do(http.MethodGet, "/api/reports?format=csv&project_id="+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "complete", w.Header().Get("X-Report-Outcome"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "CSMS_Report_Rig_A_20240701.csv")
	assert.Equal(t, 1+1+len(store.StandardTasks), strings.Count(w.Body.String(), "\n"), "header, project and task rows")
}

func TestReports_Errors(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/reports?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/reports?project_id=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/reports?from=2024-08-01&to=2024-07-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/reports?mode=fax", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReports_EmptyStoreIsEmptyOutcome(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/reports?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "empty", w.Header().Get("X-Report-Outcome"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestReports_DriveAndEmail(t *testing.T) {
	h := newHarness(t)
	h.seedProject("Rig A")

	w := h.do(http.MethodGet, "/api/reports?mode=drive", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"CSMS_Report_20240701.xlsx"}, h.up.names)

	w = h.do(http.MethodGet, "/api/reports?mode=email&recipients=a@example.com,b@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "brevo-1", decode[map[string]any](t, w)["message_id"])
	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, h.mail.sent[0].To)
	require.Len(t, h.mail.sent[0].Attachments, 1)

	h.up.err = errors.New("drive down")
	w = h.do(http.MethodGet, "/api/reports?mode=drive", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReports_EmailWithRange(t *testing.T) {
	h := newHarness(t)
	h.seedProject("Rig A")

	w := h.do(http.MethodGet, "/api/reports?mode=email&from=2024-06-01&to=2024-12-31&recipients=x@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, []string{"x@example.com"}, h.mail.sent[0].To)
	assert.Equal(t, "complete", w.Header().Get("X-Report-Outcome"))
}

func TestReminders(t *testing.T) {
	gdb := testDB(t)
	_, err := store.Put(context.Background(), gdb, &models.Schedule{
		ProjectName:     "Rig A",
		ScheduleType:    models.ScheduleSPR,
		SPRDate:         "2024-07-02",
		AssignedToEmail: "hse@example.com",
	})
	require.NoError(t, err)

	sender := &fakeSender{}
	d := &reminder.Dispatcher{
		DB:       gdb,
		Sender:   sender,
		Marks:    reminder.DBMarks{DB: gdb},
		Logger:   zaptest.NewLogger(t),
		Calendar: status.NewCalendar(jakarta),
		Options:  reminder.Options{LookaheadDays: 3, RigDownDays: 2, CompletionThreshold: 80},
		Period:   reminder.PeriodMilestone,
		Now:      func() time.Time { return now },
	}
	router := NewRouter(StartOpts{DB: gdb, Calendar: status.NewCalendar(jakarta), Dispatcher: d, Now: d.Now})

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[reminder.Result](t, w)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 1, res.Candidates[0].DaysUntil)

	req = httptest.NewRequest(http.MethodPost, "/api/reminders/run", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[reminder.RunSummary](t, w).Sent)
	assert.Len(t, sender.sent, 1)
}

func TestReminders_NotConfigured(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/reminders/preview", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = h.do(http.MethodPost, "/api/reminders/run?dry_run=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatistics(t *testing.T) {
	h := newHarness(t)
	h.seedProject("Rig A")

	w := h.do(http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[statistics](t, w)
	assert.Equal(t, 1, st.Projects[status.InProgress])
	assert.Equal(t, len(store.StandardTasks), st.TaskTotal)
	assert.Equal(t, len(store.StandardTasks), st.Tasks[status.Upcoming])
	assert.Zero(t, st.Invalid)
}
