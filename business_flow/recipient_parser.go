package businessflow

import "strings"

// ParseRecipients splits the raw client-side recipients string into
// individual phone numbers. Any run of newlines, carriage returns, or
// semicolons separates entries; surrounding whitespace is trimmed and empty
// entries are dropped. Order is preserved and duplicates are kept, so a
// number listed twice is charged and sent twice.
func ParseRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})

	recipients := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		recipients = append(recipients, f)
	}

	return recipients
}
