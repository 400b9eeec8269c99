package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// FetchServiceAccountKey reads the service account key file stored in
// Secret Manager. The key is fetched once at process start; credentials
// derived from it are read-only afterwards.
func FetchServiceAccountKey(ctx context.Context, projectID, secretName string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create secret manager client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("unable to access secret %s: %w", name, err)
	}

	return resp.GetPayload().GetData(), nil
}
