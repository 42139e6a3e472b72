package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videohubd/internal/api/models"
)

// registerRelayRoutes registers relay inspection when the relay is running.
func (s *Server) registerRelayRoutes(api huma.API) {
	if s.hub == nil {
		return
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-relay",
		Method:      http.MethodGet,
		Path:        "/api/relay",
		Summary:     "Relay state",
		Description: "Sources announced to the RTSP relay and the source behind each output path",
		Tags:        []string{"relay"},
	}, func(_ context.Context, _ *struct{}) (*models.RelayResponse, error) {
		producers := s.hub.Producers()
		outputs := s.hub.Outputs()

		data := models.RelayData{
			Producers: make([]models.RelayProducerData, len(producers)),
			Outputs:   make([]models.RelayOutputData, len(outputs)),
		}
		for i, p := range producers {
			data.Producers[i] = models.RelayProducerData{Name: p.Name, Remote: p.Remote, Since: p.Since}
		}
		for i, o := range outputs {
			data.Outputs[i] = models.RelayOutputData{Path: o.Path, Source: o.Source, Consumers: o.Consumers}
		}
		return &models.RelayResponse{Body: data}, nil
	})
}
