package main

import (
	"context"
	"log"

	api "sigsync/cmd/api"
	applyusecase "sigsync/internal/apply/usecase"
	"sigsync/pkg/config"
	"sigsync/pkg/drive"
	"sigsync/pkg/gmail"
	"sigsync/pkg/googleauth"
	"sigsync/pkg/secrets"

	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	gmailapi "google.golang.org/api/gmail/v1"
)

// Scopes the receiver needs on behalf of each target account: change the
// account's Gmail settings and write its archival copy.
var receiverScopes = []string{
	gmailapi.GmailSettingsBasicScope,
	driveapi.DriveFileScope,
}

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	keyJSON, err := secrets.FetchServiceAccountKey(ctx, cfg.ProjectID, cfg.SecretName)
	if err != nil {
		logger.Fatal("failed to fetch service account key", zap.Error(err))
	}
	delegator := googleauth.NewDelegator(keyJSON, receiverScopes)

	mailSink := gmail.NewService(delegator)
	docSink := drive.NewArchiveService(delegator, cfg.SharedDriveID, cfg.SharedDriveFolderID)
	applier := applyusecase.NewApplier(mailSink, docSink, logger, cfg.SinkTimeout)

	handler := api.NewHandler(applier, logger)

	logger.Info("receiver starting", zap.String("port", cfg.Port))
	if err := handler.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
