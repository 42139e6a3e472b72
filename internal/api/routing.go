package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videohubd/internal/api/models"
	"github.com/smazurov/videohubd/internal/gateway"
	"github.com/smazurov/videohubd/internal/videohub"
)

// routeOrigin identifies API requests in logs, events and broadcasts.
const routeOrigin = "api"

func (s *Server) registerRoutingRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-routing",
		Method:      http.MethodGet,
		Path:        "/api/routing",
		Summary:     "Get routing",
		Description: "Current inputs, outputs, routes and lock flags in index order",
		Tags:        []string{"routing"},
	}, func(_ context.Context, _ *struct{}) (*models.RoutingResponse, error) {
		return &models.RoutingResponse{Body: routingData(s.router.Snapshot())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-route",
		Method:      http.MethodPut,
		Path:        "/api/routing/{output}",
		Summary:     "Route an output",
		Description: "Switch an output to an input. Connected controllers are notified like any protocol route change.",
		Tags:        []string{"routing"},
		Errors:      []int{422, 502},
	}, func(_ context.Context, input *models.RouteRequest) (*models.RouteResponse, error) {
		route := videohub.Route{Output: input.Output, Input: input.Body.Input}
		_, err := s.router.ApplyRoutes(routeOrigin, []videohub.Route{route}, "")
		if err != nil {
			var routeErr *gateway.RouteError
			switch {
			case errors.Is(err, videohub.ErrOutOfRange):
				return nil, huma.Error422UnprocessableEntity("output or input out of range", err)
			case errors.As(err, &routeErr):
				return nil, huma.Error502BadGateway("route backend failed", err)
			default:
				return nil, huma.Error500InternalServerError("route failed", err)
			}
		}

		snap := s.router.Snapshot()
		return &models.RouteResponse{Body: outputData(snap.Outputs[route.Output])}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-input-label",
		Method:      http.MethodPut,
		Path:        "/api/inputs/{input}/label",
		Summary:     "Label an input",
		Description: "Rename an input until restart. Connected controllers receive the new INPUT LABELS entry.",
		Tags:        []string{"routing"},
		Errors:      []int{404, 422},
	}, func(_ context.Context, input *models.InputLabelRequest) (*models.InputLabelResponse, error) {
		if _, err := s.router.UpdateInputLabel(input.Input, input.Body.Label); err != nil {
			switch {
			case errors.Is(err, videohub.ErrOutOfRange):
				return nil, huma.Error404NotFound("no such input", err)
			case errors.Is(err, videohub.ErrInvalidLabel):
				return nil, huma.Error422UnprocessableEntity("label must fit on one line", err)
			default:
				return nil, huma.Error500InternalServerError("label update failed", err)
			}
		}

		snap := s.router.Snapshot()
		return &models.InputLabelResponse{Body: inputData(snap.Inputs[input.Input])}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-peers",
		Method:      http.MethodGet,
		Path:        "/api/peers",
		Summary:     "List controllers",
		Description: "Videohub controllers currently connected to the gateway",
		Tags:        []string{"routing"},
	}, func(_ context.Context, _ *struct{}) (*models.PeerListResponse, error) {
		peers := s.router.Peers()
		data := models.PeerListData{Peers: make([]models.PeerData, len(peers)), Count: len(peers)}
		for i, p := range peers {
			data.Peers[i] = models.PeerData{Address: p.Address, ConnectedAt: p.ConnectedAt, Queued: p.Queued}
		}
		return &models.PeerListResponse{Body: data}, nil
	})
}

func routingData(snap gateway.Snapshot) models.RoutingData {
	data := models.RoutingData{
		Inputs:  make([]models.InputData, len(snap.Inputs)),
		Outputs: make([]models.OutputData, len(snap.Outputs)),
	}
	for i, in := range snap.Inputs {
		data.Inputs[i] = inputData(in)
	}
	for i, out := range snap.Outputs {
		data.Outputs[i] = outputData(out)
	}
	return data
}

func inputData(in gateway.InputState) models.InputData {
	return models.InputData{
		Index:   in.Index,
		Label:   in.Label,
		Source:  in.Source.Name,
		Address: in.Source.Address,
	}
}

func outputData(out gateway.OutputState) models.OutputData {
	return models.OutputData{
		Index: out.Index,
		Label: out.Label,
		Input: out.Input,
		Lock:  out.Lock.String(),
	}
}
