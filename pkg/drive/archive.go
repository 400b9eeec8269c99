package drive

import (
	"context"
	"fmt"
	"strings"

	"sigsync/pkg/googleauth"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ArchiveService stores the applied signature of each account as
// <email>.html in a shared drive folder. The write is an overwrite keyed by
// that filename: re-applying the same event updates the existing file
// instead of adding a duplicate, which is what makes redelivery safe.
//
// Writes act as the target user (drive.file scope), so the client is built
// per call from the delegator.
type ArchiveService struct {
	delegator *googleauth.Delegator
	driveID   string
	folderID  string
}

func NewArchiveService(delegator *googleauth.Delegator, driveID, folderID string) *ArchiveService {
	return &ArchiveService{delegator: delegator, driveID: driveID, folderID: folderID}
}

// Put creates or updates the archival copy for one account.
func (s *ArchiveService) Put(ctx context.Context, email, signature string) error {
	client, err := s.delegator.ClientFor(ctx, email)
	if err != nil {
		return err
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("unable to create drive service: %w", err)
	}

	filename := email + ".html"
	existingID, err := s.findFile(ctx, srv, filename)
	if err != nil {
		return err
	}

	media := strings.NewReader(signature)
	if existingID == "" {
		_, err = srv.Files.Create(&drive.File{
			Name:     filename,
			MimeType: "text/html",
			Parents:  []string{s.folderID},
			DriveId:  s.driveID,
		}).
			SupportsAllDrives(true).
			Media(media, googleapi.ContentType("text/html")).
			Fields("id").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("unable to create archive file %s: %w", filename, err)
		}
		return nil
	}

	_, err = srv.Files.Update(existingID, &drive.File{}).
		SupportsAllDrives(true).
		Media(media, googleapi.ContentType("text/html")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to update archive file %s: %w", filename, err)
	}
	return nil
}

func (s *ArchiveService) findFile(ctx context.Context, srv *drive.Service, filename string) (string, error) {
	query := fmt.Sprintf("name='%s' and trashed=false and mimeType='text/html' and '%s' in parents", filename, s.folderID)
	resp, err := srv.Files.List().
		Q(query).
		DriveId(s.driveID).
		Corpora("drive").
		Spaces("drive").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for archive file %s: %w", filename, err)
	}

	switch len(resp.Files) {
	case 0:
		return "", nil
	case 1:
		return resp.Files[0].Id, nil
	default:
		return "", fmt.Errorf("found %d archive files named %s, expected at most one", len(resp.Files), filename)
	}
}
