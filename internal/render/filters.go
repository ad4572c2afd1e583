package render

import (
	"html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	filtersOnce sync.Once

	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// pongo2 filters are process-wide.
func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("plaintext") {
			_ = pongo2.RegisterFilter("plaintext", filterPlaintext)
		}
	})
}

// Plaintext strips every tag (and the body of script/style elements) from s,
// leaving text suitable for attribute values such as aria-label. The result
// is unescaped text; the template layer escapes it again on output.
func Plaintext(s string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	cleaned := textPolicy.Sanitize(s)
	return strings.Join(strings.Fields(html.UnescapeString(cleaned)), " ")
}

func filterPlaintext(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(Plaintext(in.String())), nil
}
