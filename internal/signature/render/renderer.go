package render

import (
	"regexp"
	"sort"
	"strings"

	"sigsync/internal/signature/domain"
)

// Renderer substitutes account data into a signature template. It is a pure
// function of its inputs: no I/O, no clock, no randomness, so the same
// record and template always produce byte-identical output.
//
// Token syntax:
//
//	{{field}}              replaced with the account field, "" when absent
//	{{field/}}...{{/field}} kept (tags stripped) when the field is set or
//	                        the flag is true, removed entirely otherwise
//
// Unrecognized tokens are left verbatim so a malformed template degrades to
// an ugly signature instead of blocking the account.
type Renderer struct {
	companyName    string
	companyWebsite string
}

func New(companyName, companyWebsite string) *Renderer {
	return &Renderer{
		companyName:    companyName,
		companyWebsite: companyWebsite,
	}
}

// Render produces the signature for one account. The template is never
// mutated.
func (r *Renderer) Render(tpl domain.Template, record domain.AccountRecord) string {
	fields := record.Fields()
	fields["company"] = r.companyName
	fields["web"] = r.companyWebsite
	flags := record.Flags()

	out := tpl.Body

	// Conditional sections first: an inactive section takes its inner
	// tokens with it. Keys are processed in sorted order so nested or
	// overlapping sections resolve the same way on every run.
	for _, key := range sortedKeys(fields, flags) {
		active := fields[key] != "" || flags[key]
		out = resolveSection(out, key, active)
	}

	for _, key := range sortedStringKeys(fields) {
		out = strings.ReplaceAll(out, "{{"+key+"}}", fields[key])
	}

	return out
}

// resolveSection strips the section tags for key when active, or removes
// the whole tagged span when not.
func resolveSection(text, key string, active bool) string {
	openTag := "{{" + key + "/}}"
	closeTag := "{{/" + key + "}}"
	if !strings.Contains(text, openTag) {
		return text
	}
	if active {
		text = strings.ReplaceAll(text, openTag, "")
		return strings.ReplaceAll(text, closeTag, "")
	}
	pattern := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(openTag) + `.*?` + regexp.QuoteMeta(closeTag))
	return pattern.ReplaceAllString(text, "")
}

func sortedKeys(fields map[string]string, flags map[string]bool) []string {
	keys := make([]string, 0, len(fields)+len(flags))
	for k := range fields {
		keys = append(keys, k)
	}
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
