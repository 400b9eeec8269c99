package main

import (
	"context"
	"log"

	dispatchusecase "sigsync/internal/dispatch/usecase"
	runlogdomain "sigsync/internal/runlog/domain"
	runlogrepo "sigsync/internal/runlog/repository"
	"sigsync/internal/signature/filter"
	"sigsync/internal/signature/render"
	"sigsync/pkg/config"
	"sigsync/pkg/database"
	"sigsync/pkg/directory"
	"sigsync/pkg/drive"
	"sigsync/pkg/googleauth"
	"sigsync/pkg/pubsub"
	"sigsync/pkg/secrets"

	"go.uber.org/zap"
	admin "google.golang.org/api/admin/directory/v1"
	driveapi "google.golang.org/api/drive/v3"
)

// Scopes the sender needs while acting as the service user: read the
// directory roster and export the template documents.
var senderScopes = []string{
	admin.AdminDirectoryUserReadonlyScope,
	driveapi.DriveReadonlyScope,
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
	delegator := googleauth.NewDelegator(keyJSON, senderScopes)

	client, err := delegator.ClientFor(ctx, cfg.ServiceAccountEmail)
	if err != nil {
		logger.Fatal("failed to build delegated client", zap.Error(err))
	}

	directorySource, err := directory.NewService(ctx, client, cfg.DirectoryDomain)
	if err != nil {
		logger.Fatal("failed to create directory service", zap.Error(err))
	}

	templateSource, err := drive.NewTemplateService(ctx, client, cfg.TemplateFileID, cfg.TechnicalTemplateFileID, cfg.TechnicalOrgUnit)
	if err != nil {
		logger.Fatal("failed to create template service", zap.Error(err))
	}

	publisher, err := pubsub.NewPublisher(ctx, cfg.ProjectID, cfg.TopicID, cfg.GoogleCredentials, logger)
	if err != nil {
		logger.Fatal("failed to create publisher", zap.Error(err))
	}
	defer publisher.Close()

	dispatcher := dispatchusecase.NewDispatcher(
		directorySource,
		templateSource,
		publisher,
		render.New(cfg.CompanyName, cfg.CompanyWebsite),
		filter.New(cfg.ExcludedOrgUnits, cfg.ServiceAccounts),
		logger,
		cfg.PublishMaxAttempts,
		cfg.DispatchWorkers,
	)

	report, err := dispatcher.Run(ctx)
	if err != nil {
		logger.Fatal("dispatch run failed", zap.Error(err))
	}

	persistReport(cfg, logger, report)
}

// persistReport saves the run summary when a run-log database is
// configured. A broken run log never fails a dispatch that succeeded.
func persistReport(cfg *config.Config, logger *zap.Logger, report *dispatchusecase.RunReport) {
	if cfg.RunlogDSN == "" {
		return
	}

	db, err := database.NewPostgresConnection(cfg.RunlogDSN)
	if err != nil {
		logger.Error("run report not persisted", zap.Error(err))
		return
	}
	if err := db.AutoMigrate(&runlogdomain.RunReport{}); err != nil {
		logger.Error("run report not persisted", zap.Error(err))
		return
	}

	if err := runlogrepo.NewRunReportRepository(db).Save(toRunReport(report)); err != nil {
		logger.Error("run report not persisted", zap.Error(err))
	}
}

func toRunReport(r *dispatchusecase.RunReport) *runlogdomain.RunReport {
	return &runlogdomain.RunReport{
		ID:                     r.RunID,
		StartedAt:              r.StartedAt,
		FinishedAt:             r.FinishedAt,
		TotalAccounts:          r.Total,
		Eligible:               r.Eligible,
		Published:              r.Published,
		RenderFailed:           r.RenderFailed,
		PublishFailed:          r.PublishFailed,
		SkippedInactive:        r.SkippedByReason[filter.ReasonInactive],
		SkippedNonHuman:        r.SkippedByReason[filter.ReasonNonHuman],
		SkippedOrgUnitExcluded: r.SkippedByReason[filter.ReasonOrgUnitExcluded],
	}
}
