package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"sigsync/internal/signature/domain"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Fields requested from the Directory API. Everything the renderer and the
// eligibility filter can use, nothing more.
var userFields = "nextPageToken,users(primaryEmail,suspended,archived,orgUnitPath,name/givenName,name/familyName,name/fullName,phones,addresses,organizations,customSchemas/Personal_Information,customSchemas/Contractual_Information)"

const pageSize = 100

// Service lists the full account roster of one Workspace domain. It does no
// filtering; eligibility is decided downstream.
type Service struct {
	directory *admin.Service
	domain    string
}

func NewService(ctx context.Context, client *http.Client, workspaceDomain string) (*Service, error) {
	srv, err := admin.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create directory service: %w", err)
	}
	return &Service{directory: srv, domain: workspaceDomain}, nil
}

// ListAccounts pages through the whole directory, ordered by email so the
// roster snapshot is stable between runs.
func (s *Service) ListAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	var records []domain.AccountRecord
	pageToken := ""

	for {
		call := s.directory.Users.List().
			Domain(s.domain).
			Projection("full").
			MaxResults(pageSize).
			OrderBy("email").
			SortOrder("ASCENDING").
			Fields(googleapi.Field(userFields)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list users: %w", err)
		}

		for _, user := range resp.Users {
			records = append(records, mapUser(user))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return records, nil
}

func mapUser(user *admin.User) domain.AccountRecord {
	record := domain.AccountRecord{
		PrimaryEmail: user.PrimaryEmail,
		OrgUnitPath:  user.OrgUnitPath,
		Suspended:    user.Suspended,
		Archived:     user.Archived,
		Type:         domain.AccountTypeHuman,
	}
	if user.Name != nil {
		record.GivenName = user.Name.GivenName
		record.FamilyName = user.Name.FamilyName
		record.DisplayName = user.Name.FullName
	}

	record.Phone, record.Mobile = phones(user.Phones)
	record.Address = workAddress(user.Addresses)
	record.JobTitle, record.Department = organization(user.Organizations)

	if raw, ok := user.CustomSchemas["Personal_Information"]; ok {
		var info struct {
			Pronouns   string `json:"Pronouns"`
			GernePerDu string `json:"GernePerDu"`
		}
		if err := json.Unmarshal(raw, &info); err == nil {
			record.Pronouns = info.Pronouns
			record.InformalGreeting = info.GernePerDu == "yes"
		}
	}
	if raw, ok := user.CustomSchemas["Contractual_Information"]; ok {
		var info struct {
			ManagementRole string `json:"Management_Role"`
		}
		if err := json.Unmarshal(raw, &info); err == nil {
			record.ManagementRole = info.ManagementRole
		}
	}

	return record
}

// The Directory API types phones, addresses and organizations as untyped
// JSON; decode just the entries we use.
func phones(raw interface{}) (work, mobile string) {
	for _, entry := range entries(raw) {
		switch entry["type"] {
		case "work":
			work, _ = entry["value"].(string)
		case "mobile":
			mobile, _ = entry["value"].(string)
		}
	}
	return work, mobile
}

func workAddress(raw interface{}) string {
	for _, entry := range entries(raw) {
		if entry["type"] == "work" {
			formatted, _ := entry["formatted"].(string)
			return formatted
		}
	}
	return ""
}

func organization(raw interface{}) (title, department string) {
	list := entries(raw)
	if len(list) == 0 {
		return "", ""
	}
	title, _ = list[0]["title"].(string)
	department, _ = list[0]["department"].(string)
	return title, department
}

func entries(raw interface{}) []map[string]interface{} {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if entry, ok := item.(map[string]interface{}); ok {
			out = append(out, entry)
		}
	}
	return out
}
