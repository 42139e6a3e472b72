package models

import (
	"time"

	"github.com/smazurov/videohubd/internal/version"
)

// Health check models
type HealthData struct {
	Status  string       `json:"status" example:"ok" doc:"Service status"`
	Message string       `json:"message" example:"API is healthy" doc:"Status message"`
	Peers   int          `json:"peers" example:"2" doc:"Connected Videohub controllers"`
	Build   version.Info `json:"build" doc:"Build metadata"`
}

type HealthResponse struct {
	Body HealthData
}

// Routing models
type InputData struct {
	Index   int    `json:"index" example:"0" doc:"Input index"`
	Label   string `json:"label" example:"CAM-1" doc:"Input label shown to controllers"`
	Source  string `json:"source" example:"CAM-1 (Studio)" doc:"Source name"`
	Address string `json:"address" example:"rtsp://127.0.0.1:8554/cam-1" doc:"Source network address"`
}

type OutputData struct {
	Index int    `json:"index" example:"1" doc:"Output index"`
	Label string `json:"label" example:"Output 1" doc:"Output label"`
	Input int    `json:"input" example:"0" doc:"Input currently routed to this output"`
	Lock  string `json:"lock" example:"U" enum:"U,L,O" doc:"Recorded lock flag"`
}

type RoutingData struct {
	Inputs  []InputData  `json:"inputs" doc:"Inputs in index order"`
	Outputs []OutputData `json:"outputs" doc:"Outputs in index order"`
}

type RoutingResponse struct {
	Body RoutingData
}

type RouteRequest struct {
	Output int `path:"output" minimum:"0" example:"1" doc:"Output index"`
	Body   struct {
		Input int `json:"input" minimum:"0" example:"0" doc:"Input index to route"`
	}
}

type RouteResponse struct {
	Body OutputData
}

type InputLabelRequest struct {
	Input int `path:"input" minimum:"0" example:"0" doc:"Input index"`
	Body  struct {
		Label string `json:"label" minLength:"1" example:"Camera 1" doc:"New input label"`
	}
}

type InputLabelResponse struct {
	Body InputData
}

// Peer models
type PeerData struct {
	Address     string    `json:"address" example:"127.0.0.1:53422" doc:"Controller network address"`
	ConnectedAt time.Time `json:"connected_at" doc:"When the controller connected"`
	Queued      int       `json:"queued" example:"0" doc:"Messages waiting in the controller's outbox"`
}

type PeerListData struct {
	Peers []PeerData `json:"peers" doc:"Connected controllers ordered by address"`
	Count int        `json:"count" example:"1" doc:"Number of connected controllers"`
}

type PeerListResponse struct {
	Body PeerListData
}

// Relay models
type RelayProducerData struct {
	Name   string    `json:"name" example:"cam-1" doc:"Announced source name"`
	Remote string    `json:"remote" example:"10.0.0.5:41822" doc:"Producer network address"`
	Since  time.Time `json:"since" doc:"When the producer announced"`
}

type RelayOutputData struct {
	Path      string `json:"path" example:"output-1" doc:"RTSP path consumers play"`
	Source    string `json:"source,omitempty" example:"cam-1" doc:"Source currently routed to the path"`
	Consumers int    `json:"consumers" example:"1" doc:"Attached RTSP clients"`
}

type RelayData struct {
	Producers []RelayProducerData `json:"producers" doc:"Announced sources ordered by name"`
	Outputs   []RelayOutputData   `json:"outputs" doc:"Output paths ordered by path"`
}

type RelayResponse struct {
	Body RelayData
}

// Logging models
type LogLevelRequest struct {
	Module string `path:"module" example:"gateway" doc:"Logger module name"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
	}
}

type LogLevelData struct {
	Module string `json:"module" example:"gateway" doc:"Logger module name"`
	Level  string `json:"level" example:"debug" doc:"Level now in effect"`
}

type LogLevelResponse struct {
	Body LogLevelData
}
