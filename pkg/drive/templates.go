package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"sigsync/internal/signature/domain"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// TemplateService fetches the HTML signature templates from Drive: one
// default template for everyone and one for technical (org) accounts.
// Exported bodies are cached for the lifetime of the service, which a
// dispatch run creates fresh, so a run sees one consistent snapshot.
type TemplateService struct {
	drive *drive.Service

	defaultFileID    string
	technicalFileID  string
	technicalOrgUnit string

	mu    sync.Mutex
	cache map[string]string
}

func NewTemplateService(ctx context.Context, client *http.Client, defaultFileID, technicalFileID, technicalOrgUnit string) (*TemplateService, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &TemplateService{
		drive:            srv,
		defaultFileID:    defaultFileID,
		technicalFileID:  technicalFileID,
		technicalOrgUnit: technicalOrgUnit,
		cache:            make(map[string]string),
	}, nil
}

// FetchTemplateSet exports the template documents and assembles the
// selection rules: technical accounts get the technical template, everyone
// else the default.
func (s *TemplateService) FetchTemplateSet(ctx context.Context) (domain.TemplateSet, error) {
	defaultBody, err := s.export(ctx, s.defaultFileID)
	if err != nil {
		return domain.TemplateSet{}, fmt.Errorf("unable to fetch default template: %w", err)
	}

	set := domain.TemplateSet{
		Default:   domain.Template{Name: "default", Body: defaultBody},
		Templates: make(map[string]domain.Template),
	}

	if s.technicalFileID != "" && s.technicalOrgUnit != "" {
		technicalBody, err := s.export(ctx, s.technicalFileID)
		if err != nil {
			return domain.TemplateSet{}, fmt.Errorf("unable to fetch technical template: %w", err)
		}
		set.Templates["technical"] = domain.Template{Name: "technical", Body: technicalBody}
		set.Rules = append(set.Rules, domain.TemplateRule{OrgUnitPrefix: s.technicalOrgUnit, TemplateName: "technical"})
	}

	return set, nil
}

func (s *TemplateService) export(ctx context.Context, fileID string) (string, error) {
	s.mu.Lock()
	if body, ok := s.cache[fileID]; ok {
		s.mu.Unlock()
		return body, nil
	}
	s.mu.Unlock()

	resp, err := s.drive.Files.Export(fileID, "text/html").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("unable to export document %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("unable to read document %s: %w", fileID, err)
	}

	s.mu.Lock()
	s.cache[fileID] = string(body)
	s.mu.Unlock()
	return string(body), nil
}
