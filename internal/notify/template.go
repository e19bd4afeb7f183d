package notify

import (
	"fmt"
	"regexp"
	"strings"
)

// Built-in template bodies, persisted on first use and editable over
// the API afterwards.
const (
	DefaultDueSoonTemplate = `# ⏰ Task due soon: {task_title}
- Due at: {due_at}
- Remaining: {remaining}
`

	DefaultOverdueTemplate = `# ❗ Task overdue: {task_title}
- Was due at: {due_at}
- Overdue by: {overdue_by}
`
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// RenderTemplate substitutes {name} placeholders in body with values
// from data. A placeholder with no entry in data is an error; unused
// data keys are ignored.
func RenderTemplate(body string, data map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(body, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := data[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template references undefined placeholder(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}
