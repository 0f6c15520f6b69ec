package visits_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/features/visits"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/mailer"
	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
	"github.com/dalemusser/visitdesk/internal/app/system/viewstate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/visitdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

type sentMail struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *sentMail) Enabled() bool { return true }

func (m *sentMail) Send(e mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *sentMail) all() []mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Email(nil), m.sent...)
}

type testEnv struct {
	h     *visits.Handler
	db    *mongo.Database
	fx    *testutil.Fixtures
	views *viewstate.Store
	mail  *sentMail
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	reg := viewregistry.New()
	if err := visitordashboard.Register(reg); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	if err := visits.Register(reg); err != nil {
		t.Fatalf("register view: %v", err)
	}

	views, err := viewstate.New(viewstate.Options{
		Key:  "0123456789abcdef0123456789abcdef",
		Name: "test-view",
	}, logger)
	if err != nil {
		t.Fatalf("viewstate.New: %v", err)
	}

	mail := &sentMail{}
	h := visits.NewHandler(db, reg, views, mail, uierrors.NewErrorLogger(logger), visits.Config{
		Location: time.UTC,
		PageSize: 10,
		SiteName: "Test Site",
		BaseURL:  "https://visits.example.com",
	}, logger)
	h.Clock = func() time.Time { return fixedNow }

	return &testEnv{h: h, db: db, fx: testutil.NewFixtures(t, db), views: views, mail: mail}
}

// serve runs fn, tolerating template panics since the engine is not booted
// in tests.
func serve(fn http.HandlerFunc, rec *httptest.ResponseRecorder, req *http.Request) {
	defer func() { _ = recover() }()
	fn(rec, req)
}

func (e *testEnv) savedState(from *httptest.ResponseRecorder) viewstate.State {
	req := testutil.CarryCookies(testutil.NewRequest(http.MethodGet, "/visits"), from)
	return e.views.Load(req, visits.ViewKey)
}

func (e *testEnv) toggle(t *testing.T, status string, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewFormRequest("/visits/dashboard/toggle", url.Values{"status": {status}})
	if prev != nil {
		req = testutil.CarryCookies(req, prev)
	}
	rec := httptest.NewRecorder()
	serve(e.h.HandleToggle, rec, req)
	return rec
}

func (e *testEnv) reload(t *testing.T, id string) models.Visit {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		t.Fatalf("bad id %q: %v", id, err)
	}
	v, err := visitstore.New(e.db).GetByID(ctx, oid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return v
}

func TestRegister_DuplicateView(t *testing.T) {
	reg := viewregistry.New()
	if err := visitordashboard.Register(reg); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	if err := visits.Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := visits.Register(reg); err == nil {
		t.Fatal("second Register should fail")
	}
	v, ok := reg.View(visits.ViewKey)
	if !ok {
		t.Fatalf("view %q not registered", visits.ViewKey)
	}
	if len(v.Widgets) != 1 || v.Widgets[0] != visitordashboard.WidgetName {
		t.Errorf("view widgets = %v, want [%s]", v.Widgets, visitordashboard.WidgetName)
	}
}

func TestRegister_RequiresWidget(t *testing.T) {
	if err := visits.Register(viewregistry.New()); err == nil {
		t.Fatal("Register without the dashboard widget should fail")
	}
}

func TestHandleToggle_SavesTodayPredicate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.toggle(t, "pending", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/visits" {
		t.Errorf("Location = %q, want /visits", loc)
	}

	st := e.savedState(rec)
	want := predicate.StatusForDay(visitstatus.Pending, fixedNow)
	if len(st.Predicate) != 3 {
		t.Fatalf("saved predicate = %v, want 3 triples", st.Predicate)
	}
	for i := range want {
		if st.Predicate[i] != want[i] {
			t.Errorf("triple %d = %v, want %v", i, st.Predicate[i], want[i])
		}
	}
	if st.Predicate[1].Value != "2024-03-15 00:00:00" || st.Predicate[2].Value != "2024-03-15 23:59:59" {
		t.Errorf("day bounds = %q..%q", st.Predicate[1].Value, st.Predicate[2].Value)
	}
	if got := st.Widgets[visitordashboard.WidgetName]; got != visitstatus.Pending {
		t.Errorf("saved selection = %q, want pending", got)
	}
}

func TestHandleToggle_SameStatusClears(t *testing.T) {
	e := newTestEnv(t)

	first := e.toggle(t, "approved", nil)
	second := e.toggle(t, "approved", first)
	if second.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", second.Code, http.StatusSeeOther)
	}

	st := e.savedState(second)
	if len(st.Predicate) != 0 {
		t.Errorf("predicate = %v, want none", st.Predicate)
	}
	if got := st.Widgets[visitordashboard.WidgetName]; got != "" {
		t.Errorf("selection = %q, want none", got)
	}
}

func TestHandleToggle_SwitchReplaces(t *testing.T) {
	e := newTestEnv(t)

	first := e.toggle(t, "pending", nil)
	second := e.toggle(t, "cancelled", first)

	st := e.savedState(second)
	if len(st.Predicate) != 3 {
		t.Fatalf("predicate has %d triples, want 3", len(st.Predicate))
	}
	if st.Predicate[0].Value != visitstatus.Cancelled {
		t.Errorf("status triple = %v, want cancelled", st.Predicate[0])
	}
	if got := st.Widgets[visitordashboard.WidgetName]; got != visitstatus.Cancelled {
		t.Errorf("selection = %q, want cancelled", got)
	}
}

func TestHandleToggle_UnknownStatus(t *testing.T) {
	e := newTestEnv(t)

	rec := e.toggle(t, "archived", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("a rejected toggle should not touch the session")
	}
}

func TestHandleToggle_NormalizesLabel(t *testing.T) {
	e := newTestEnv(t)

	rec := e.toggle(t, "  Approved ", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := e.savedState(rec).Widgets[visitordashboard.WidgetName]; got != visitstatus.Approved {
		t.Errorf("selection = %q, want approved", got)
	}
}

func TestHandleCompanyFilter_DroppedByToggle(t *testing.T) {
	e := newTestEnv(t)

	req := testutil.NewFormRequest("/visits/filters/company", url.Values{"company": {"Acme"}})
	company := httptest.NewRecorder()
	serve(e.h.HandleCompanyFilter, company, req)
	if company.Code != http.StatusSeeOther {
		t.Fatalf("company filter status = %d, want %d", company.Code, http.StatusSeeOther)
	}
	if st := e.savedState(company); len(st.Predicate) != 1 || st.Predicate[0].Field != predicate.FieldCompany {
		t.Fatalf("predicate after company filter = %v", st.Predicate)
	}

	rec := e.toggle(t, "pending", company)
	st := e.savedState(rec)
	if len(st.Predicate) != 3 {
		t.Fatalf("predicate = %v, want only the status-for-today triples", st.Predicate)
	}
	for _, tr := range st.Predicate {
		if tr.Field == predicate.FieldCompany {
			t.Errorf("company condition survived the toggle: %v", st.Predicate)
		}
	}
}

func TestHandleCompanyFilter_ReplacesEarlierCompany(t *testing.T) {
	e := newTestEnv(t)

	prev := e.toggle(t, "pending", nil)
	for _, company := range []string{"Acme", "Globex"} {
		req := testutil.CarryCookies(testutil.NewFormRequest("/visits/filters/company", url.Values{"company": {company}}), prev)
		rec := httptest.NewRecorder()
		serve(e.h.HandleCompanyFilter, rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("company %s status = %d, want %d", company, rec.Code, http.StatusSeeOther)
		}
		prev = rec
	}

	st := e.savedState(prev)
	if len(st.Predicate) != 4 {
		t.Fatalf("predicate = %v, want status-for-today plus one company", st.Predicate)
	}
	if last := st.Predicate[3]; last.Field != predicate.FieldCompany || last.Value != "Globex" {
		t.Errorf("company triple = %v, want Globex", last)
	}
	if sel := st.Widgets[visitordashboard.WidgetName]; sel != "pending" {
		t.Errorf("dashboard selection = %q, want pending", sel)
	}
}

func TestHandleClearFilters_ClearsSelection(t *testing.T) {
	e := newTestEnv(t)

	toggled := e.toggle(t, "pending", nil)
	req := testutil.CarryCookies(testutil.NewFormRequest("/visits/filters/clear", url.Values{}), toggled)
	rec := httptest.NewRecorder()
	serve(e.h.HandleClearFilters, rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	st := e.savedState(rec)
	if len(st.Predicate) != 0 || st.Widgets[visitordashboard.WidgetName] != "" {
		t.Errorf("state after clear = %+v, want empty", st)
	}
}

func TestHandleCreate(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		"name":          {"Ada Lovelace"},
		"company":       {"Analytical Engines"},
		"email":         {"ada@example.com"},
		"phone":         {"5551234567"},
		"purpose":       {"Demo"},
		"host":          {"Charles"},
		"visiting_date": {"2024-03-16"},
	}
	rec := httptest.NewRecorder()
	serve(e.h.HandleCreate, rec, testutil.NewFormRequest("/visits", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/visits/") {
		t.Fatalf("Location = %q, want /visits/<id>", loc)
	}
	v := e.reload(t, strings.TrimPrefix(loc, "/visits/"))
	if v.Status != visitstatus.Pending {
		t.Errorf("status = %q, want pending", v.Status)
	}
	if v.VisitType != models.VisitTypePreRegistered {
		t.Errorf("visit type = %q, want pre", v.VisitType)
	}
	if want := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC); !v.VisitingDate.Equal(want) {
		t.Errorf("visiting date = %v, want %v", v.VisitingDate, want)
	}
	if v.QRToken == "" {
		t.Error("QR token not generated")
	}
}

func TestHandleCreate_WalkIn(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		"name":    {"Walk In"},
		"phone":   {"5550000000"},
		"walk_in": {"1"},
	}
	rec := httptest.NewRecorder()
	serve(e.h.HandleCreate, rec, testutil.NewFormRequest("/visits", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	v := e.reload(t, strings.TrimPrefix(rec.Header().Get("Location"), "/visits/"))
	if v.VisitType != models.VisitTypeWalkIn {
		t.Errorf("visit type = %q, want walkin", v.VisitType)
	}
	if !v.VisitingDate.Equal(fixedNow) {
		t.Errorf("visiting date = %v, want %v", v.VisitingDate, fixedNow)
	}
}

func TestHandleCreate_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing name", url.Values{"phone": {"5551234567"}}},
		{"short phone", url.Values{"name": {"Bob"}, "phone": {"12345"}}},
		{"bad email", url.Values{"name": {"Bob"}, "phone": {"5551234567"}, "email": {"bob@"}}},
		{"past date", url.Values{"name": {"Bob"}, "phone": {"5551234567"}, "visiting_date": {"2024-03-01"}}},
		{"bad date", url.Values{"name": {"Bob"}, "phone": {"5551234567"}, "visiting_date": {"15/03/2024"}}},
	}

	e := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			serve(e.h.HandleCreate, rec, testutil.NewFormRequest("/visits", tt.form))
			if rec.Code == http.StatusSeeOther {
				t.Fatal("invalid input should re-render the form, not redirect")
			}
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := e.db.Collection("visits").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("%d visits created from invalid input, want 0", n)
	}
}

func TestHandleApprove_SendsEmail(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.InsertVisit(ctx, models.Visit{
		Name:         "Grace",
		Email:        "grace@example.com",
		Phone:        "5551112222",
		Status:       visitstatus.Pending,
		VisitingDate: fixedNow,
	})

	req := testutil.WithChiURLParam(testutil.NewFormRequest("/visits/"+v.ID.Hex()+"/approve", url.Values{}), "id", v.ID.Hex())
	rec := httptest.NewRecorder()
	serve(e.h.HandleApprove, rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	if got := e.reload(t, v.ID.Hex()); got.Status != visitstatus.Approved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	sent := e.mail.all()
	if len(sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sent))
	}
	if sent[0].To != "grace@example.com" {
		t.Errorf("To = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].TextBody, "https://visits.example.com/badge/"+v.QRToken) {
		t.Errorf("approval email lacks badge link:\n%s", sent[0].TextBody)
	}
}

func TestHandleApprove_WalkInChecksIn(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateWalkIn(ctx, "Walker")
	req := testutil.WithChiURLParam(testutil.NewFormRequest("/visits/"+v.ID.Hex()+"/approve", url.Values{}), "id", v.ID.Hex())
	rec := httptest.NewRecorder()
	serve(e.h.HandleApprove, rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := e.reload(t, v.ID.Hex()); got.CheckIn == nil {
		t.Error("approved walk-in should be checked in")
	}
	if n := len(e.mail.all()); n != 0 {
		t.Errorf("sent %d emails to a visitor without an address", n)
	}
}

func TestHandleCancel(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.InsertVisit(ctx, models.Visit{
		Name:         "Linus",
		Email:        "linus@example.com",
		Phone:        "5553334444",
		Status:       visitstatus.Approved,
		VisitingDate: fixedNow,
	})
	target := "/visits/" + v.ID.Hex() + "/cancel"

	// No reason: form re-rendered, nothing changes.
	rec := httptest.NewRecorder()
	serve(e.h.HandleCancel, rec, testutil.WithChiURLParam(testutil.NewFormRequest(target, url.Values{"reason": {"  "}}), "id", v.ID.Hex()))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("cancel without a reason should not redirect")
	}
	if got := e.reload(t, v.ID.Hex()); got.Status != visitstatus.Approved {
		t.Fatalf("status = %q after reasonless cancel, want approved", got.Status)
	}

	rec = httptest.NewRecorder()
	form := url.Values{"reason": {"Host is out sick"}, "return": {"/visits/" + v.ID.Hex()}}
	serve(e.h.HandleCancel, rec, testutil.WithChiURLParam(testutil.NewFormRequest(target, form), "id", v.ID.Hex()))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	got := e.reload(t, v.ID.Hex())
	if got.Status != visitstatus.Cancelled || got.CancellationReason != "Host is out sick" {
		t.Errorf("visit = %q / %q, want cancelled with reason", got.Status, got.CancellationReason)
	}
	sent := e.mail.all()
	if len(sent) != 1 || !strings.Contains(sent[0].TextBody, "Host is out sick") {
		t.Errorf("cancellation email = %+v", sent)
	}
}

func TestHandleCheckInOut(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVisit(ctx, "Margaret", visitstatus.Approved, fixedNow)
	id := v.ID.Hex()

	post := func(fn http.HandlerFunc, action string) int {
		rec := httptest.NewRecorder()
		serve(fn, rec, testutil.WithChiURLParam(testutil.NewFormRequest("/visits/"+id+"/"+action, url.Values{}), "id", id))
		return rec.Code
	}

	if code := post(e.h.HandleCheckOut, "checkout"); code != http.StatusConflict {
		t.Errorf("checkout before checkin = %d, want %d", code, http.StatusConflict)
	}
	if code := post(e.h.HandleCheckIn, "checkin"); code != http.StatusSeeOther {
		t.Fatalf("checkin = %d, want %d", code, http.StatusSeeOther)
	}
	if code := post(e.h.HandleCheckIn, "checkin"); code != http.StatusConflict {
		t.Errorf("second checkin = %d, want %d", code, http.StatusConflict)
	}
	if code := post(e.h.HandleCheckOut, "checkout"); code != http.StatusSeeOther {
		t.Fatalf("checkout = %d, want %d", code, http.StatusSeeOther)
	}

	got := e.reload(t, id)
	if got.CheckIn == nil || got.CheckOut == nil {
		t.Errorf("check in/out not recorded: %+v", got)
	}
}

func TestHandleCheckIn_Rejections(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pending := e.fx.CreateVisit(ctx, "Pending", visitstatus.Pending, fixedNow)
	tomorrow := e.fx.CreateVisit(ctx, "Tomorrow", visitstatus.Approved, fixedNow.Add(24*time.Hour))

	for _, v := range []models.Visit{pending, tomorrow} {
		rec := httptest.NewRecorder()
		req := testutil.WithChiURLParam(testutil.NewFormRequest("/visits/"+v.ID.Hex()+"/checkin", url.Values{}), "id", v.ID.Hex())
		serve(e.h.HandleCheckIn, rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("%s: status = %d, want %d", v.Name, rec.Code, http.StatusConflict)
		}
	}
}

func TestServeView_BadID(t *testing.T) {
	e := newTestEnv(t)

	rec := httptest.NewRecorder()
	serve(e.h.ServeView, rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/visits/nope"), "id", "nope"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	missing := "65f0c0ffee0000000000abcd"
	serve(e.h.ServeView, rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/visits/"+missing), "id", missing))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
