package forms

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/session"
	"github.com/muurk/lmsadmin/internal/wizard"
)

func newService(t *testing.T, h http.HandlerFunc) *api.Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := apiclient.NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "tok"}))
	c.SetCSRFToken("csrf")
	return api.New(c)
}

func TestListingScenarioA_StepValidation(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {})
	w, err := NewListingWizard(svc.Listings, wizard.Options{})
	if err != nil {
		t.Fatalf("NewListingWizard() error = %v", err)
	}

	w.UpdateField("title", "Drill")
	w.UpdateField("category", "equipment")
	w.UpdateField("description", "Cordless drill")
	if err := w.GoNext(); err != nil {
		t.Fatalf("GoNext() from basic error = %v", err)
	}
	if w.ActiveStep() != ListingPricing {
		t.Fatalf("ActiveStep() = %s, want pricing", w.ActiveStep())
	}

	w.UpdateField("price", 0.0)
	w.UpdateField("location", "Lagos")
	err = w.GoNext()
	if !wizard.IsValidationError(err) {
		t.Fatalf("GoNext() with price 0 error = %v, want validation error", err)
	}
	if w.ActiveStep() != ListingPricing {
		t.Errorf("ActiveStep() = %s, want pricing", w.ActiveStep())
	}
	if _, ok := w.Errors()["price"]; !ok {
		t.Errorf("Errors() = %v, want price", w.Errors())
	}
	if len(w.Errors()) != 1 {
		t.Errorf("Errors() = %v, want only price", w.Errors())
	}

	w.UpdateField("price", 25.0)
	if err := w.GoNext(); err != nil {
		t.Fatalf("GoNext() with price 25 error = %v", err)
	}
	if w.ActiveStep() != ListingAvailability {
		t.Errorf("ActiveStep() = %s, want availability", w.ActiveStep())
	}
}

func TestListingScenarioB_SubmissionFailureRecovery(t *testing.T) {
	var calls int32
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "multipart/form-data" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"images":["At least one image required"]}`))
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil || len(r.MultipartForm.File["images"]) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	w, err := NewListingWizard(svc.Listings, wizard.Options{})
	if err != nil {
		t.Fatal(err)
	}
	fill := map[string]any{
		"title":            "Drill",
		"category":         "equipment",
		"description":      "Cordless drill",
		"price":            25.0,
		"location":         "Lagos",
		"always_available": true,
	}
	for k, v := range fill {
		w.UpdateField(k, v)
	}
	for i := 0; i < 3; i++ {
		if err := w.GoNext(); err != nil {
			t.Fatalf("GoNext() %d error = %v", i, err)
		}
	}

	before := w.Snapshot()
	err = w.Submit(context.Background())
	if err == nil {
		t.Fatal("Submit() without images should fail")
	}
	if got := apiclient.GetShortErrorMessage(err); got != "images: At least one image required" {
		t.Errorf("error message = %q", got)
	}
	after := w.Snapshot()
	if !reflect.DeepEqual(before.Draft, after.Draft) || len(after.Attachments) != 0 {
		t.Fatal("failed submission must preserve the draft and attachments")
	}

	if _, err := w.AddAttachment(apiclient.Upload{FileName: "drill.jpg", ContentType: "image/jpeg", Data: []byte("jpg")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() with image error = %v", err)
	}

	final := w.Snapshot()
	if !reflect.DeepEqual(final.Draft, ListingDefaults()) {
		t.Errorf("Draft after success = %v, want initial draft", final.Draft)
	}
	if final.Active != 0 || len(final.Attachments) != 0 {
		t.Errorf("after success: active %d attachments %d", final.Active, len(final.Attachments))
	}
	if calls != 2 {
		t.Errorf("backend calls = %d, want 2", calls)
	}
}

func TestListingAvailabilityValidation(t *testing.T) {
	validate := ListingSteps()[2].Validate

	tests := []struct {
		name  string
		draft map[string]any
		want  []string
	}{
		{"always available", map[string]any{"always_available": true}, nil},
		{"missing dates", map[string]any{"always_available": false}, []string{"end_date", "start_date"}},
		{"reversed dates", map[string]any{"start_date": "2024-06-10", "end_date": "2024-06-01"}, []string{"end_date"}},
		{"bad format", map[string]any{"start_date": "10-06-2024", "end_date": "2024-06-20"}, []string{"start_date"}},
		{"valid range", map[string]any{"start_date": "2024-06-01", "end_date": "2024-06-10"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate(tt.draft)
			var fields []string
			for _, f := range []string{"end_date", "start_date"} {
				if _, ok := got[f]; ok {
					fields = append(fields, f)
				}
			}
			if !reflect.DeepEqual(fields, tt.want) {
				t.Errorf("failing fields = %v, want %v (errors %v)", fields, tt.want, got)
			}
		})
	}
}

func TestListingPayloadAndForm(t *testing.T) {
	draft := map[string]any{
		"title":            " Drill ",
		"category":         "equipment",
		"price":            25.0,
		"always_available": false,
		"start_date":       "2024-06-01",
		"end_date":         "2024-06-10",
		"rules":            []string{"No smoking", "No pets"},
	}

	p := ListingPayload(draft)
	if p["title"] != "Drill" || p["price"] != 25.0 {
		t.Errorf("payload = %v", p)
	}
	avail := p["availability"].(map[string]any)
	if avail["start_date"] != "2024-06-01" || avail["always_available"] != false {
		t.Errorf("availability = %v", avail)
	}
	if got := p["delivery_options"].([]string); len(got) != 0 {
		t.Errorf("delivery_options = %v, want empty list", got)
	}

	form := ListingForm(draft)
	if form.Get("price") != "25" || form.Get("end_date") != "2024-06-10" {
		t.Errorf("form = %v", form)
	}
	if got := form["rules"]; !reflect.DeepEqual(got, []string{"No smoking", "No pets"}) {
		t.Errorf("rules = %v", got)
	}
}

func TestCourseWizard_Validation(t *testing.T) {
	steps := CourseSteps(nil)

	basic := steps[0].Validate(map[string]any{"title": "Go", "code": "", "description": "d"})
	for _, f := range []string{"code", "category_id"} {
		if _, ok := basic[f]; !ok {
			t.Errorf("basic errors = %v, want %s", basic, f)
		}
	}

	details := CourseDefaults()
	details["price"] = 100.0
	details["discount_price"] = 120.0
	got := steps[1].Validate(details)
	if got["discount_price"] == "" || len(got) != 1 {
		t.Errorf("details errors = %v, want only discount_price", got)
	}

	details["discount_price"] = 80.0
	details["currency"] = "JPY"
	got = steps[1].Validate(details)
	if _, ok := got["currency"]; !ok || len(got) != 1 {
		t.Errorf("details errors = %v, want only currency", got)
	}

	scorm := steps[3].Validate(map[string]any{"completion_threshold": 120.0, "score_threshold": 50.0})
	if _, ok := scorm["completion_threshold"]; !ok || len(scorm) != 1 {
		t.Errorf("scorm errors = %v", scorm)
	}
}

func TestCourseWizard_SubmitEncoding(t *testing.T) {
	var gotType string
	var gotOutcomes []string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotType, _, _ = mime.ParseMediaType(r.Header.Get("Content-Type"))
		if gotType == "multipart/form-data" {
			_ = r.ParseMultipartForm(1 << 20)
			gotOutcomes = r.MultipartForm.Value["learning_outcomes"]
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9}`))
	})

	fill := func(w *wizard.Controller) {
		w.UpdateField("title", "Go")
		w.UpdateField("code", "GO1")
		w.UpdateField("description", "Learn Go")
		w.UpdateField("category_id", 2.0)
		w.UpdateField("learning_outcomes", []string{"Write Go", "Test Go"})
	}

	w, err := NewCourseWizard(svc.Courses, nil, wizard.Options{MaxAttachments: 5})
	if err != nil {
		t.Fatal(err)
	}
	fill(w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if gotType != "application/json" {
		t.Errorf("content type without thumbnail = %s, want application/json", gotType)
	}

	fill(w)
	if _, err := w.AddAttachment(apiclient.Upload{FileName: "t.png", Data: []byte("png")}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddAttachment(apiclient.Upload{FileName: "u.png"}); !errors.Is(err, wizard.ErrAttachmentLimit) {
		t.Errorf("second thumbnail error = %v, want ErrAttachmentLimit", err)
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if gotType != "multipart/form-data" {
		t.Errorf("content type with thumbnail = %s", gotType)
	}
	if !reflect.DeepEqual(gotOutcomes, []string{"Write Go", "Test Go"}) {
		t.Errorf("learning_outcomes = %v", gotOutcomes)
	}
}

func TestCoursePayload(t *testing.T) {
	draft := CourseDefaults()
	draft["category_id"] = 3.0
	draft["discount_price"] = nil
	draft["currency"] = ""

	p := CoursePayload(draft)
	if p["currency"] != "NGN" {
		t.Errorf("currency = %v, want NGN", p["currency"])
	}
	if p["category_id"] != int64(3) {
		t.Errorf("category_id = %#v", p["category_id"])
	}
	if _, ok := p["discount_price"]; ok {
		t.Error("empty discount_price should be omitted")
	}
	if _, ok := p["certificate_text"]; ok {
		t.Error("certificate fields should be omitted when certificates are disabled")
	}

	form := CourseForm(draft)
	if form.Get("category_id") != "3" || form.Get("scorm_enabled") != "false" {
		t.Errorf("form = %v", form)
	}
}

func TestCategoryHint(t *testing.T) {
	cats := []api.Category{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	if got := categoryHint(cats); got != "1=A, 2=B" {
		t.Errorf("categoryHint() = %q", got)
	}
	if categoryHint(nil) != "" {
		t.Error("categoryHint(nil) should be empty")
	}
}
