package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videohubd/internal/api/models"
	"github.com/smazurov/videohubd/internal/logging"
)

func (s *Server) registerLoggingRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "set-log-level",
		Method:      http.MethodPut,
		Path:        "/api/logging/{module}",
		Summary:     "Set module log level",
		Description: "Change a module's log level until the next restart",
		Tags:        []string{"logging"},
	}, func(_ context.Context, input *models.LogLevelRequest) (*models.LogLevelResponse, error) {
		if !logging.SetModuleLevel(input.Module, input.Body.Level) {
			return nil, huma.Error400BadRequest("unknown level " + input.Body.Level)
		}
		s.logger.Info("Log level changed", "target", input.Module, "level", input.Body.Level)
		return &models.LogLevelResponse{Body: models.LogLevelData{Module: input.Module, Level: input.Body.Level}}, nil
	})
}
