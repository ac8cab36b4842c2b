package forms

import (
	"strings"

	"github.com/muurk/lmsadmin/internal/wizard"
)

func str(draft map[string]any, key string) string {
	s, _ := draft[key].(string)
	return strings.TrimSpace(s)
}

func num(draft map[string]any, key string) float64 {
	n, _ := wizard.Number(draft[key])
	return n
}

func flag(draft map[string]any, key string) bool {
	b, _ := draft[key].(bool)
	return b
}

func list(draft map[string]any, key string) []string {
	l, _ := draft[key].([]string)
	if l == nil {
		return []string{}
	}
	return l
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func joinOptions(options []string) string {
	return strings.Join(options, " ")
}
