package automation

import (
	"strings"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
)

// Render substitutes {{field}} and {{lead.field}} placeholders in template
// with the lead's field values. Entries in extra override the lead-derived
// value for the same token. The template is scanned once, left to right, and
// substituted values are never rescanned, so placeholder tokens inside a
// variable's value pass through verbatim and identical inputs always render
// identically. Placeholders that resolve to nothing are left verbatim too.
func Render(template string, lead *model.Lead, extra map[string]string) string {
	vars := map[string]string{}
	if lead != nil {
		vars["name"] = lead.Name
		vars["email"] = lead.Email
		vars["phone"] = lead.Phone
		vars["company"] = lead.Company
		vars["source"] = lead.Source
		vars["stage"] = lead.Stage
	}
	for k, v := range extra {
		vars[k] = v
	}

	var b strings.Builder
	for {
		open := strings.Index(template, "{{")
		if open < 0 {
			b.WriteString(template)
			break
		}
		end := strings.Index(template[open:], "}}")
		if end < 0 {
			b.WriteString(template)
			break
		}
		b.WriteString(template[:open])

		token := template[open+2 : open+end]
		key := strings.TrimPrefix(token, "lead.")
		if v, ok := vars[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[open : open+end+2])
		}
		template = template[open+end+2:]
	}
	return b.String()
}
