package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the layout of date fields (YYYY-MM-DD).
const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check is a cross-field rule that the tag syntax cannot express. It returns
// errors keyed by field name.
type Check func(draft map[string]any) map[string]string

// Rules builds a ValidateFunc from validator tags per field
// ("required", "gt=0", "oneof=a b", "omitempty,datetime=2006-01-02", ...)
// followed by checks. A field keeps the first error reported for it.
func Rules(rules map[string]string, checks ...Check) ValidateFunc {
	tagRules := make(map[string]any, len(rules))
	for field, tag := range rules {
		tagRules[field] = tag
	}

	return func(draft map[string]any) map[string]string {
		data := make(map[string]any, len(tagRules))
		for field := range tagRules {
			data[field] = normalize(draft[field])
		}

		out := make(map[string]string)
		for field, e := range validate.ValidateMap(data, tagRules) {
			out[field] = messageFor(e)
		}
		for _, check := range checks {
			for field, msg := range check(draft) {
				if _, exists := out[field]; !exists {
					out[field] = msg
				}
			}
		}
		return out
	}
}

// normalize trims strings so that whitespace-only input fails "required".
func normalize(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

func messageFor(e any) string {
	err, ok := e.(error)
	if !ok {
		return "Invalid value"
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid value"
	}
	fe := verrs[0]

	isText := fe.Kind() == reflect.String || fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be at least " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "lte":
		return "Must be at most " + fe.Param()
	case "min":
		if isText {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if isText {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "Must be a date in YYYY-MM-DD format"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	}
	return "Invalid value"
}

// RequiredUnless reports fields that are empty while draft[flag] is not true.
func RequiredUnless(flag string, fields ...string) Check {
	return func(draft map[string]any) map[string]string {
		if b, _ := draft[flag].(bool); b {
			return nil
		}
		out := make(map[string]string)
		for _, f := range fields {
			if isEmpty(draft[f]) {
				out[f] = "This field is required"
			}
		}
		return out
	}
}

// DateOrder reports end when both dates parse and end is before start.
func DateOrder(start, end string) Check {
	return func(draft map[string]any) map[string]string {
		s, okS := parseDate(draft[start])
		e, okE := parseDate(draft[end])
		if okS && okE && e.Before(s) {
			return map[string]string{end: "End date cannot be before start date"}
		}
		return nil
	}
}

// LessThan reports field when both values are numbers and field >= other.
// An empty field passes.
func LessThan(field, other, message string) Check {
	return func(draft map[string]any) map[string]string {
		v, ok := Number(draft[field])
		if !ok {
			return nil
		}
		limit, ok := Number(draft[other])
		if ok && v >= limit {
			return map[string]string{field: message}
		}
		return nil
	}
}

// Number converts numeric draft values (float64, int, numeric strings).
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return t, err == nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []string:
		return len(x) == 0
	}
	return false
}

// ParseInput converts raw text typed for f into the draft value type:
// float64 for numbers (nil when blank), bool for toggles, []string for
// lists (separated by ";"), a trimmed string otherwise.
func ParseInput(f Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindNumber:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", f.Label)
		}
		return n, nil
	case KindBool:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1", "on":
			return true, nil
		case "", "n", "no", "false", "0", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be yes or no", f.Label)
	case KindList:
		var items []string
		for _, item := range strings.Split(raw, ";") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case KindChoice:
		if raw == "" {
			return "", nil
		}
		for _, opt := range f.Options {
			if strings.EqualFold(opt, raw) {
				return opt, nil
			}
		}
		return raw, nil
	}
	return raw, nil
}

// FormatValue renders a draft value back into editable text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case []string:
		return strings.Join(x, "; ")
	}
	return fmt.Sprint(v)
}
