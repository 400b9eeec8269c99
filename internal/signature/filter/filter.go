package filter

import (
	"strings"

	"sigsync/internal/signature/domain"
)

// Exclusion reasons, stable strings used in logs and run reports.
const (
	ReasonInactive        = "inactive"
	ReasonNonHuman        = "non-human"
	ReasonOrgUnitExcluded = "org-unit-excluded"
)

// Decision is the outcome of the eligibility check for one account.
type Decision struct {
	Eligible bool
	Reason   string
}

// Filter decides which directory accounts receive a signature update.
// Rules are evaluated in order and the first match wins, so an account that
// is both suspended and in an excluded org unit reports "inactive".
type Filter struct {
	excludedOrgUnits []string
	serviceAccounts  map[string]struct{}
}

func New(excludedOrgUnits, serviceAccounts []string) *Filter {
	sa := make(map[string]struct{}, len(serviceAccounts))
	for _, email := range serviceAccounts {
		sa[strings.ToLower(email)] = struct{}{}
	}
	return &Filter{
		excludedOrgUnits: excludedOrgUnits,
		serviceAccounts:  sa,
	}
}

// Decide is total over every record shape the directory can return: missing
// optional fields fall through to inclusion unless a rule needs them.
func (f *Filter) Decide(record domain.AccountRecord) Decision {
	if record.Suspended || record.Archived {
		return Decision{Reason: ReasonInactive}
	}
	if f.isNonHuman(record) {
		return Decision{Reason: ReasonNonHuman}
	}
	if f.isOrgUnitExcluded(record.OrgUnitPath) {
		return Decision{Reason: ReasonOrgUnitExcluded}
	}
	return Decision{Eligible: true}
}

func (f *Filter) isNonHuman(record domain.AccountRecord) bool {
	if record.Type == domain.AccountTypeResource || record.Type == domain.AccountTypeService {
		return true
	}
	_, listed := f.serviceAccounts[strings.ToLower(record.PrimaryEmail)]
	return listed
}

// isOrgUnitExcluded treats configured entries as subtree prefixes, except
// the bare root "/" which only matches exactly.
func (f *Filter) isOrgUnitExcluded(path string) bool {
	for _, excluded := range f.excludedOrgUnits {
		if path == excluded {
			return true
		}
		if excluded != "/" && strings.HasPrefix(path, excluded) {
			return true
		}
	}
	return false
}
