package domain

// AccountType classifies a directory entry. Anything other than a human
// account is skipped by the eligibility filter.
type AccountType string

const (
	AccountTypeHuman    AccountType = "human"
	AccountTypeResource AccountType = "resource"
	AccountTypeService  AccountType = "service"
)

// AccountRecord is one member's directory profile, snapshotted once per
// dispatch run. The primary email address is the unique key everywhere:
// eligibility, event partitioning and archival naming.
type AccountRecord struct {
	PrimaryEmail string `json:"primaryEmail"`
	GivenName    string `json:"givenName"`
	FamilyName   string `json:"familyName"`
	DisplayName  string `json:"displayName"`
	OrgUnitPath  string `json:"orgUnitPath"`

	Suspended bool        `json:"suspended"`
	Archived  bool        `json:"archived"`
	Type      AccountType `json:"type"`

	// Optional profile fields used for signature personalization
	JobTitle       string `json:"jobTitle"`
	Department     string `json:"department"`
	Phone          string `json:"phone"`
	Mobile         string `json:"mobile"`
	Address        string `json:"address"`
	Pronouns       string `json:"pronouns"`
	ManagementRole string `json:"managementRole"`

	// InformalGreeting toggles the informal salutation block in templates
	InformalGreeting bool `json:"informalGreeting"`
}

// Fields returns the substitution values the renderer recognizes for this
// record. Absent fields map to the empty string so rendering stays total.
func (a AccountRecord) Fields() map[string]string {
	return map[string]string{
		"email":          a.PrimaryEmail,
		"firstName":      a.GivenName,
		"lastName":       a.FamilyName,
		"name":           a.displayName(),
		"orgUnit":        a.OrgUnitPath,
		"jobtitle":       a.JobTitle,
		"department":     a.Department,
		"phone":          a.Phone,
		"mobile":         a.Mobile,
		"address":        a.Address,
		"pronouns":       a.Pronouns,
		"managementRole": a.ManagementRole,
	}
}

// Flags returns the boolean toggles the renderer recognizes for
// conditional template sections.
func (a AccountRecord) Flags() map[string]bool {
	return map[string]bool{
		"informalGreeting":     a.InformalGreeting,
		"conditionalLineBreak": a.Pronouns != "" || a.InformalGreeting,
	}
}

func (a AccountRecord) displayName() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.GivenName == "" {
		return a.FamilyName
	}
	if a.FamilyName == "" {
		return a.GivenName
	}
	return a.GivenName + " " + a.FamilyName
}
