package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/session"
)

// backend is a fake LMS that records every request it receives.
type backend struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
	uploaded []byte

	users   string
	courses string
	upload  string
}

func (b *backend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		b.requests = append(b.requests, key)
		if b.bodies == nil {
			b.bodies = map[string][]byte{}
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			if f, _, err := r.FormFile("file"); err == nil {
				b.uploaded, _ = io.ReadAll(f)
				f.Close()
			}
		} else {
			body, _ := io.ReadAll(r.Body)
			b.bodies[key] = append(b.bodies[key], body...)
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case key == "GET /users/api/users/":
			io.WriteString(w, b.users)
		case key == "GET /courses/courses/":
			io.WriteString(w, b.courses)
		case key == "POST /users/api/users/bulk_upload/":
			io.WriteString(w, b.upload)
		case strings.HasSuffix(key, "/admin_bulk_enroll/"):
			io.WriteString(w, `{"created":2,"already_enrolled":1}`)
		default:
			io.WriteString(w, `{"id":1}`)
		}
	}
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *backend) saw(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r == key {
			return true
		}
	}
	return false
}

func (b *backend) body(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *backend) uploadedFile() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaded
}

func newTestService(t *testing.T, b *backend) *api.Service {
	t.Helper()
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)

	c := apiclient.NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "tok", RefreshToken: "ref"}))
	c.SetCSRFToken("csrf-123")
	return api.New(c)
}

const userList = `{"count":3,"next":null,"results":[
	{"id":1,"email":"ada@example.com"},
	{"id":2,"email":"Grace@Example.com"},
	{"id":3,"email":"linus@example.com"}]}`

func TestParseFile_CSV(t *testing.T) {
	data := "\xef\xbb\xbfemail,name\nada@example.com,Ada\n,\ngrace@example.com, Grace \n"

	sheet, err := ParseFile("people.csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if !reflect.DeepEqual(sheet.Header, []string{"email", "name"}) {
		t.Errorf("Header = %v", sheet.Header)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(sheet.Rows))
	}
	if sheet.Rows[1]["name"] != "Grace" {
		t.Errorf("Rows[1][name] = %q, want trimmed Grace", sheet.Rows[1]["name"])
	}
}

func TestParseFile_ShortRecordsArePadded(t *testing.T) {
	sheet, err := ParseFile("p.CSV", strings.NewReader("email,name,role\nada@example.com\n"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	row := sheet.Rows[0]
	if v, ok := row["role"]; !ok || v != "" {
		t.Errorf("row[role] = %q, %v; want empty and present", v, ok)
	}
}

func TestParseFile_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{"text file", "users.txt", []byte("email\na@b.co\n"), ErrUnsupportedFormat},
		{"no extension", "users", []byte("email\n"), ErrUnsupportedFormat},
		{"too large", "users.csv", bytes.Repeat([]byte("a"), MaxFileSize+1), ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile(tt.file, bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseFile() error = %v, want %v", err, tt.wantErr)
			}
			var fe *FileError
			if !errors.As(err, &fe) || fe.File != tt.file {
				t.Errorf("error %v is not a *FileError for %s", err, tt.file)
			}
		})
	}
}

func TestParseFile_XLSXTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUserTemplateTo(&buf); err != nil {
		t.Fatalf("WriteUserTemplateTo() error = %v", err)
	}

	sheet, err := ParseFile("template.xlsx", &buf)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if !reflect.DeepEqual(sheet.Header, UserColumns) {
		t.Errorf("Header = %v, want %v", sheet.Header, UserColumns)
	}
	if len(sheet.Rows) != 1 || sheet.Rows[0].Email() != "john@example.com" {
		t.Errorf("Rows = %v, want the example user", sheet.Rows)
	}
	if errs := ValidateUsers(sheet.Rows, nil); len(errs) != 0 {
		t.Errorf("template example row fails validation: %v", errs.Messages())
	}
}

func TestWriteUserTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), TemplateFileName)
	if err := WriteUserTemplate(path); err != nil {
		t.Fatalf("WriteUserTemplate() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() == 0 {
		t.Error("template file is empty")
	}
}

func TestRequireEmailColumn(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr bool
	}{
		{"lower", "email,name\na@b.co,A\n", false},
		{"title", "Email\na@b.co\n", false},
		{"upper", "EMAIL\na@b.co\n", false},
		{"missing", "mail,name\na@b.co,A\n", true},
		{"header only", "email\n", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ParseFile("f.csv", strings.NewReader(tt.csv))
			if err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}
			err = RequireEmailColumn(sheet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireEmailColumn() error = %v, wantErr %v", err, tt.wantErr)
			}
			var fe *FileError
			if err != nil && !errors.As(err, &fe) {
				t.Errorf("error %T is not a *FileError", err)
			}
		})
	}
}

func TestEmails(t *testing.T) {
	rows := []Row{
		{"email": " ada@example.com "},
		{"Email": "grace@example.com"},
		{"email": "", "EMAIL": "linus@example.com"},
		{"email": ""},
	}
	want := []string{"ada@example.com", "grace@example.com", "linus@example.com"}
	if got := Emails(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("Emails() = %v, want %v", got, want)
	}
}

func TestEnrollFromFile(t *testing.T) {
	b := &backend{users: userList}
	e := NewEnroller(newTestService(t, b))

	data := "email,name\nada@example.com,Ada\ngrace@example.com,Grace\nnobody@example.com,Nobody\n"
	report, err := e.EnrollFromFile(context.Background(), 7, "people.csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("EnrollFromFile() error = %v", err)
	}

	if len(report.Matched) != 2 {
		t.Errorf("Matched = %d users, want 2", len(report.Matched))
	}
	if !reflect.DeepEqual(report.Unmatched, []string{"nobody@example.com"}) {
		t.Errorf("Unmatched = %v", report.Unmatched)
	}

	key := "POST /courses/enrollments/course/7/admin_bulk_enroll/"
	var sent struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := json.Unmarshal(b.body(key), &sent); err != nil {
		t.Fatalf("enroll body: %v (%s)", err, b.body(key))
	}
	if !reflect.DeepEqual(sent.UserIDs, []int64{1, 2}) {
		t.Errorf("user_ids = %v, want [1 2]", sent.UserIDs)
	}

	want := "Successfully enrolled 2 users (1 were already enrolled); 1 address(es) had no account"
	if got := report.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestEnrollFromFile_RejectedBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		wantErr error
	}{
		{"no email column", "people.csv", "name,phone\nAda,1\nGrace,2\n", nil},
		{"blank addresses", "people.csv", "email,name\n,Ada\n ,Grace\n", ErrNoValidEmails},
		{"unsupported", "people.json", "[]", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &backend{users: userList}
			e := NewEnroller(newTestService(t, b))

			_, err := e.EnrollFromFile(context.Background(), 7, tt.file, strings.NewReader(tt.data))
			if err == nil {
				t.Fatal("EnrollFromFile() error = nil, want rejection")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if n := b.count(); n != 0 {
				t.Errorf("made %d requests, want 0", n)
			}
		})
	}
}

func TestEnrollFromFile_NoMatchingUsers(t *testing.T) {
	b := &backend{users: userList}
	e := NewEnroller(newTestService(t, b))

	_, err := e.EnrollFromFile(context.Background(), 7, "p.csv", strings.NewReader("email\nx@example.com\n"))
	if !errors.Is(err, ErrNoMatchingUsers) {
		t.Fatalf("error = %v, want ErrNoMatchingUsers", err)
	}
	if b.saw("POST /courses/enrollments/course/7/admin_bulk_enroll/") {
		t.Error("enroll endpoint called without matching users")
	}
}
