package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/restream/internal/api/models"
)

func (s *Server) registerSystemdRoutes() {
	if s.options.SystemdManager == nil {
		return
	}
	unit := s.options.ServiceName

	huma.Register(s.api, huma.Operation{
		OperationID: "get-service-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/status",
		Summary:     "Service Status",
		Description: "Get the systemd state of the terminal service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := s.options.SystemdManager.ServiceStatus(ctx, unit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{Service: unit, Status: status},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-service",
		Method:      http.MethodPost,
		Path:        "/api/systemd/restart",
		Summary:     "Restart Service",
		Description: "Restart the terminal service. Starts a new broadcast session, the current one ends.",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		// The restart stops this process, do not wait for the job on the request context.
		restartCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		go func() {
			defer cancel()
			if err := s.options.SystemdManager.RestartService(restartCtx, unit); err != nil {
				s.logger.Error("Service restart failed", "unit", unit, "error", err)
			}
		}()
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{Service: unit, Action: "restart", Success: true},
		}, nil
	})
}
