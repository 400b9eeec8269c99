package api

import (
	applydelivery "sigsync/internal/apply/delivery"
	applyusecase "sigsync/internal/apply/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler owns the receiver's HTTP surface.
type Handler struct {
	applyHandler *applydelivery.ApplyHandler
	logger       *zap.Logger
}

func NewHandler(applier *applyusecase.Applier, logger *zap.Logger) *Handler {
	return &Handler{
		applyHandler: applydelivery.NewApplyHandler(applier, logger),
		logger:       logger,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	SetupRoutes(r, h.applyHandler)

	return r.Run(addr)
}
