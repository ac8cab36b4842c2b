package bulk

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/lmsadmin/internal/api"
)

func validUser() Row {
	return Row{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "longenough",
		"role":      "student",
		"birthDate": "1990-01-15",
		"status":    "active",
		"courseIds": "10, 11",
	}
}

func TestValidateUsers(t *testing.T) {
	ref := &Reference{
		Emails:  map[string]bool{"taken@example.com": true},
		Courses: map[int64]bool{10: true, 11: true},
	}

	tests := []struct {
		name   string
		mutate func(r Row)
		want   []string
	}{
		{"valid", func(r Row) {}, nil},
		{"missing names", func(r Row) { r["firstName"] = ""; delete(r, "lastName") }, []string{
			"Row 2: Missing required field: firstName",
			"Row 2: Missing required field: lastName",
		}},
		{"bad email", func(r Row) { r["email"] = "ada.example.com" }, []string{"Row 2: Invalid email format"}},
		{"existing email", func(r Row) { r["email"] = "Taken@example.com" }, []string{"Row 2: Email already exists in the system"}},
		{"short password", func(r Row) { r["password"] = "short" }, []string{"Row 2: Password must be at least 8 characters"}},
		{"bad role", func(r Row) { r["role"] = "learner" }, []string{
			"Row 2: Invalid role. Must be one of: student, instructor, admin, super_admin, iqa, eqa",
		}},
		{"role case", func(r Row) { r["role"] = "Instructor" }, nil},
		{"bad birth date", func(r Row) { r["birthDate"] = "15/01/1990" }, []string{"Row 2: Invalid birth date format (use YYYY-MM-DD)"}},
		{"bad status", func(r Row) { r["status"] = "suspended" }, []string{
			"Row 2: Invalid status. Must be one of: active, inactive, pending",
		}},
		{"unknown course", func(r Row) { r["courseIds"] = "10,99,abc" }, []string{
			"Row 2: Invalid course ID: 99",
			"Row 2: Invalid course ID: abc",
		}},
		{"optional blanks", func(r Row) { r["birthDate"] = ""; r["status"] = ""; r["courseIds"] = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validUser()
			tt.mutate(row)
			got := ValidateUsers([]Row{row}, ref).Messages()
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("messages = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateUsers_DuplicatesAndRowNumbers(t *testing.T) {
	a, b, c := validUser(), validUser(), validUser()
	b["email"] = "ADA@example.com"
	c["email"] = "other@example.com"

	errs := ValidateUsers([]Row{a, b, c}, nil)
	want := []string{
		"Row 2: Duplicate email in upload batch",
		"Row 3: Duplicate email in upload batch",
	}
	if !reflect.DeepEqual(errs.Messages(), want) {
		t.Errorf("messages = %q, want %q", errs.Messages(), want)
	}
	if !strings.Contains(errs.Error(), "2 rows failed validation") {
		t.Errorf("Error() = %q", errs.Error())
	}
}

func TestUploader_ValidationBlocksUpload(t *testing.T) {
	b := &backend{users: userList, courses: `{"count":1,"next":null,"results":[{"id":10}]}`}
	u := NewUploader(newTestService(t, b))

	row := validUser()
	row["email"] = "ada@example.com" // already in userList
	sheet := &Sheet{Name: "users.xlsx", Header: UserColumns, Rows: []Row{row}}

	_, err := u.Upload(context.Background(), sheet)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Upload() error = %v, want ValidationErrors", err)
	}
	if b.saw("POST /users/api/users/bulk_upload/") {
		t.Error("bulk upload sent despite validation failures")
	}
	if !b.saw("GET /users/api/users/") || !b.saw("GET /courses/courses/") {
		t.Error("reference data was not loaded")
	}
}

func TestUploader_Upload(t *testing.T) {
	b := &backend{
		users:   `{"count":0,"next":null,"results":[]}`,
		courses: `{"count":2,"next":null,"results":[{"id":10},{"id":11}]}`,
		upload:  `{"success":true,"created_count":1,"created_users":[{"id":42,"email":"ada@example.com"}],"errors":[]}`,
	}
	u := NewUploader(newTestService(t, b))
	u.Welcome = true

	sheet := &Sheet{Name: "users.csv", Header: UserColumns, Rows: []Row{validUser()}}
	report, err := u.Upload(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if report.Count != 1 || len(report.Warnings) != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.Summary() != "Successfully processed 1 users" {
		t.Errorf("Summary() = %q", report.Summary())
	}

	records, err := csv.NewReader(bytes.NewReader(b.uploadedFile())).ReadAll()
	if err != nil {
		t.Fatalf("uploaded CSV: %v", err)
	}
	if len(records) != 2 || !reflect.DeepEqual(records[0], UserColumns) || records[1][2] != "ada@example.com" {
		t.Errorf("uploaded records = %v", records)
	}

	for _, key := range []string{
		"POST /courses/enrollments/course/10/",
		"POST /courses/enrollments/course/11/",
		"POST /messaging/api/messages/",
	} {
		if !b.saw(key) {
			t.Errorf("follow-up %s not sent", key)
		}
	}
}

func TestUploader_BackendFailure(t *testing.T) {
	b := &backend{
		users:   `[]`,
		courses: `[]`,
		upload:  `{"success":false,"created_count":0,"errors":["row 2: bad data"]}`,
	}
	u := NewUploader(newTestService(t, b))

	row := validUser()
	row["courseIds"] = ""
	_, err := u.Upload(context.Background(), &Sheet{Header: UserColumns, Rows: []Row{row}})
	if err == nil || !strings.Contains(err.Error(), "row 2: bad data") {
		t.Errorf("Upload() error = %v, want backend errors", err)
	}
}

func TestRowsToCSV(t *testing.T) {
	rows := []Row{{"a": "1", "b": "x,y"}, {"a": "2"}}
	got, err := RowsToCSV([]string{"a", "b"}, rows)
	if err != nil {
		t.Fatalf("RowsToCSV() error = %v", err)
	}
	want := "a,b\n1,\"x,y\"\n2,\n"
	if string(got) != want {
		t.Errorf("RowsToCSV() = %q, want %q", got, want)
	}
}

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage(api.User{ID: 42, Email: "ada@example.com"}, "Ada")
	if msg["recipient_id"] != int64(42) || msg["type"] != "welcome" {
		t.Errorf("WelcomeMessage() = %v", msg)
	}
	if !strings.HasPrefix(msg["content"].(string), "Hello Ada,") {
		t.Errorf("content = %q", msg["content"])
	}
}
