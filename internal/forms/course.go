package forms

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/wizard"
)

// Course wizard steps.
const (
	CourseBasic       wizard.StepID = "basic"
	CourseDetails     wizard.StepID = "details"
	CourseCertificate wizard.StepID = "certificate"
	CourseSCORM       wizard.StepID = "scorm"
)

// Choices offered by the course wizard.
var (
	CourseLevels   = []string{"Beginner", "Intermediate", "Advanced"}
	CourseStatuses = []string{"Draft", "Published", "Archived"}
	Currencies     = []string{"USD", "NGN", "EUR", "GBP", "KES", "GHS"}
	SCORMStandards = []string{"scorm12", "scorm2004", "xapi"}
)

// DefaultCurrency is used when the draft has no currency.
const DefaultCurrency = "NGN"

const categoryHintSize = 6

// CourseSteps returns the course wizard steps. categories, when given, are
// listed in the category field's placeholder.
func CourseSteps(categories []api.Category) []wizard.Step {
	return []wizard.Step{
		{
			ID:    CourseBasic,
			Label: "Basic Info",
			Fields: []wizard.Field{
				{Name: "title", Label: "Title"},
				{Name: "code", Label: "Course code", Placeholder: "CS101"},
				{Name: "description", Label: "Description", Kind: wizard.KindMultiline},
				{Name: "category_id", Label: "Category ID", Kind: wizard.KindNumber, Placeholder: categoryHint(categories)},
			},
			Validate: wizard.Rules(map[string]string{
				"title":       "required",
				"code":        "required",
				"description": "required",
				"category_id": "gt=0",
			}),
		},
		{
			ID:    CourseDetails,
			Label: "Details",
			Fields: []wizard.Field{
				{Name: "level", Label: "Level", Kind: wizard.KindChoice, Options: CourseLevels},
				{Name: "status", Label: "Status", Kind: wizard.KindChoice, Options: CourseStatuses},
				{Name: "duration", Label: "Duration (hours)", Kind: wizard.KindNumber, Optional: true},
				{Name: "price", Label: "Price", Kind: wizard.KindNumber},
				{Name: "discount_price", Label: "Discount price", Kind: wizard.KindNumber, Optional: true},
				{Name: "currency", Label: "Currency", Kind: wizard.KindChoice, Options: Currencies},
				{Name: "learning_outcomes", Label: "Learning outcomes", Kind: wizard.KindList, Optional: true},
				{Name: "prerequisites", Label: "Prerequisites", Kind: wizard.KindList, Optional: true},
			},
			Validate: wizard.Rules(
				map[string]string{
					"level":          "required,oneof=" + joinOptions(CourseLevels),
					"status":         "required,oneof=" + joinOptions(CourseStatuses),
					"duration":       "omitempty,gte=0",
					"price":          "gte=0",
					"discount_price": "omitempty,gte=0",
					"currency":       "required,oneof=" + joinOptions(Currencies),
				},
				wizard.LessThan("discount_price", "price", "Discount price must be less than the price"),
			),
		},
		{
			ID:    CourseCertificate,
			Label: "Certificate",
			Fields: []wizard.Field{
				{Name: "certificate_enabled", Label: "Issue certificates", Kind: wizard.KindBool},
				{Name: "certificate_template", Label: "Template", Optional: true},
				{Name: "certificate_text", Label: "Certificate text", Kind: wizard.KindMultiline, Optional: true},
			},
			Validate: wizard.NoValidation,
		},
		{
			ID:    CourseSCORM,
			Label: "SCORM / xAPI",
			Fields: []wizard.Field{
				{Name: "scorm_enabled", Label: "SCORM enabled", Kind: wizard.KindBool},
				{Name: "scorm_standard", Label: "Standard", Kind: wizard.KindChoice, Options: SCORMStandards},
				{Name: "completion_threshold", Label: "Completion threshold %", Kind: wizard.KindNumber},
				{Name: "score_threshold", Label: "Passing score %", Kind: wizard.KindNumber},
			},
			Validate: wizard.Rules(map[string]string{
				"scorm_standard":       "omitempty,oneof=" + joinOptions(SCORMStandards),
				"completion_threshold": "omitempty,gte=0,lte=100",
				"score_threshold":      "omitempty,gte=0,lte=100",
			}),
		},
	}
}

// CourseDefaults is the initial course draft.
func CourseDefaults() map[string]any {
	return map[string]any{
		"level":                "Beginner",
		"status":               "Draft",
		"currency":             DefaultCurrency,
		"price":                0.0,
		"learning_outcomes":    []string{},
		"prerequisites":        []string{},
		"certificate_enabled":  false,
		"scorm_enabled":        false,
		"scorm_standard":       "scorm12",
		"completion_threshold": 80.0,
		"score_threshold":      70.0,
	}
}

// NewCourseWizard builds the course wizard. The first attachment, if any, is
// sent as the thumbnail; MaxAttachments is forced to 1.
func NewCourseWizard(courses *api.CoursesAPI, categories []api.Category, opts wizard.Options) (*wizard.Controller, error) {
	if opts.Initial == nil {
		opts.Initial = CourseDefaults()
	}
	opts.MaxAttachments = 1

	submit := func(ctx context.Context, draft map[string]any, attachments []wizard.Attachment) error {
		if len(attachments) == 0 {
			_, err := courses.Create(ctx, CoursePayload(draft))
			return err
		}
		thumb := attachments[0].Upload
		thumb.Field = "thumbnail"
		_, err := courses.CreateWithThumbnail(ctx, CourseForm(draft), thumb)
		return err
	}
	return wizard.New("course", CourseSteps(categories), submit, opts)
}

// CoursePayload is the JSON body for a course without a thumbnail.
func CoursePayload(draft map[string]any) map[string]any {
	body := map[string]any{
		"title":                str(draft, "title"),
		"code":                 str(draft, "code"),
		"description":          str(draft, "description"),
		"category_id":          int64(num(draft, "category_id")),
		"level":                str(draft, "level"),
		"status":               str(draft, "status"),
		"price":                num(draft, "price"),
		"currency":             currency(draft),
		"learning_outcomes":    list(draft, "learning_outcomes"),
		"prerequisites":        list(draft, "prerequisites"),
		"certificate_enabled":  flag(draft, "certificate_enabled"),
		"scorm_enabled":        flag(draft, "scorm_enabled"),
		"completion_threshold": num(draft, "completion_threshold"),
		"score_threshold":      num(draft, "score_threshold"),
	}
	if d, ok := wizard.Number(draft["duration"]); ok {
		body["duration"] = d
	}
	if d, ok := wizard.Number(draft["discount_price"]); ok && d > 0 {
		body["discount_price"] = d
	}
	if flag(draft, "certificate_enabled") {
		body["certificate_template"] = str(draft, "certificate_template")
		body["certificate_text"] = str(draft, "certificate_text")
	}
	if flag(draft, "scorm_enabled") {
		body["scorm_standard"] = str(draft, "scorm_standard")
	}
	return body
}

// CourseForm is the multipart field set for a course with a thumbnail.
// learning_outcomes and prerequisites are repeated fields.
func CourseForm(draft map[string]any) url.Values {
	form := url.Values{}
	for key, v := range CoursePayload(draft) {
		switch x := v.(type) {
		case []string:
			for _, item := range x {
				form.Add(key, item)
			}
		case bool:
			form.Set(key, boolString(x))
		default:
			form.Set(key, wizard.FormatValue(normalizeNumber(x)))
		}
	}
	return form
}

func normalizeNumber(v any) any {
	if n, ok := v.(int64); ok {
		return fmt.Sprint(n)
	}
	return v
}

func currency(draft map[string]any) string {
	if c := str(draft, "currency"); c != "" {
		return c
	}
	return DefaultCurrency
}

func categoryHint(categories []api.Category) string {
	if len(categories) == 0 {
		return ""
	}
	parts := make([]string, 0, categoryHintSize)
	for i, c := range categories {
		if i == categoryHintSize {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%d=%s", c.ID, c.Name))
	}
	return strings.Join(parts, ", ")
}
