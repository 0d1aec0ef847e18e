package models

import (
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/types"
)

// PlayRequest is the body of POST play.
type PlayRequest struct {
	URL     string `json:"url" binding:"required"`
	Replace bool   `json:"replace"`
}

// SessionRequest is the optional body of POST session.
type SessionRequest struct {
	Challenge string `json:"challenge"`
}

type StatusResponse struct {
	Host      string          `json:"host"`
	Target    string          `json:"target"`
	State     auth.Snapshot   `json:"state"`
	InFlight  []string        `json:"in_flight"`
	SeenBoxes []share.SeenBox `json:"seen_boxes"`
}

type PairResponse struct {
	TrackID int                   `json:"track_id"`
	Phase   types.ConnectionPhase `json:"phase"`
	Message string                `json:"message"`
}

type ApprovalResponse struct {
	Status string                `json:"status"` // pending | granted | rejected
	Phase  types.ConnectionPhase `json:"phase"`
}

type ValidityResponse struct {
	Validity string                `json:"validity"` // valid | indeterminate | invalid
	Phase    types.ConnectionPhase `json:"phase"`
}

type ReceiversResponse struct {
	Receivers []types.Receiver `json:"receivers"`
}

type TargetResponse struct {
	Name         string                `json:"name"`
	Availability string                `json:"availability"`
	Phase        types.ConnectionPhase `json:"phase"`
}

type CastResponse struct {
	Acknowledged bool                  `json:"acknowledged"`
	Phase        types.ConnectionPhase `json:"phase"`
}
