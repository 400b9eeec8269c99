package domain

import "strings"

// Template is a named HTML signature template with {{placeholder}} tokens.
// The body is never mutated; rendering always works on a copy.
type Template struct {
	Name string
	Body string
}

// TemplateRule maps an organizational unit subtree to a named template.
type TemplateRule struct {
	OrgUnitPrefix string
	TemplateName  string
}

// TemplateSet is the full template snapshot for one dispatch run: a default
// template plus ordered org-unit rules. Rule order is precedence; the first
// matching rule wins and the default is the fallback.
type TemplateSet struct {
	Default   Template
	Templates map[string]Template
	Rules     []TemplateRule
}

// Select returns the template for the given account record.
func (s TemplateSet) Select(record AccountRecord) Template {
	for _, rule := range s.Rules {
		if !orgUnitMatches(record.OrgUnitPath, rule.OrgUnitPrefix) {
			continue
		}
		if tpl, ok := s.Templates[rule.TemplateName]; ok {
			return tpl
		}
		// Rule points at a template the set does not carry; fall through to
		// the default rather than failing the account.
		break
	}
	return s.Default
}

// orgUnitMatches reports whether path is the rule's org unit or inside its
// subtree. The root path "/" only matches exactly, otherwise every account
// would match it.
func orgUnitMatches(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	if prefix == "/" {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
