package rules

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Interpolate replaces {dotted.path} placeholders in a message with values
// resolved against the context. Times render as short dd/mm/yyyy dates,
// unresolved or malformed placeholders render as empty strings. Never
// panics.
func Interpolate(message string, ctx Context) string {
	if message == "" {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(message, func(token string) string {
		path := token[1 : len(token)-1]
		val, ok := ctx.Resolve(path)
		if !ok {
			return ""
		}
		if val.Kind() == KindTime {
			return val.t.Format("02/01/2006")
		}
		return val.Text()
	})
}
