// Package vision defines the contract with the external vision-model
// service. The estimation core dictates the response shapes here; transport,
// prompt wording and retries belong to the concrete engines.
package vision

import (
	"context"
	"errors"
)

// Engine is one vision-model backend. All calls are synchronous, respect
// ctx cancellation, and return exactly one structured response per call.
type Engine interface {
	Name() string

	// ClassifyVehicle identifies the vehicle, cargo material and license
	// plate text from a rear photo of a truck.
	ClassifyVehicle(ctx context.Context, in ClassifyRequest) (ClassifyResponse, error)

	// DetectGeometry locates the scale reference features and the cargo
	// peak in normalized image coordinates.
	DetectGeometry(ctx context.Context, in GeometryRequest) (GeometryResponse, error)

	// EstimateFill estimates the shape/packing parameters of the load.
	EstimateFill(ctx context.Context, in FillRequest) (FillResponse, error)
}

// ErrEmptyResponse reports a call that produced no text candidates at all.
var ErrEmptyResponse = errors.New("vision: empty model response")

// ClassifyRequest carries the photo for vehicle/material identification.
type ClassifyRequest struct {
	ImageB64 string
	MIME     string // optional; sniffed from the bytes when empty
	// Exemplars is an optional few-shot reference block built from graded
	// historical records.
	Exemplars string
}

// ClassifyResponse is the expected shape of the classification call.
type ClassifyResponse struct {
	CargoDetected bool    `json:"cargoDetected"`
	VehicleType   string  `json:"vehicleType"`
	TruckClass    string  `json:"truckClass"`
	Material      string  `json:"material"`
	PlateRegion   string  `json:"plateRegion"`
	PlateNumber   string  `json:"plateNumber"`
	MaxCapacityT  float64 `json:"maxCapacityT"`
	Confidence    float64 `json:"confidence"`
}

// GeometryRequest carries the photo for reference-feature detection.
type GeometryRequest struct {
	ImageB64 string
	MIME     string
}

// GeometryResponse is one raw geometry sample: every field is optional,
// values are fractions of image width/height in [0,1]. Y grows downward,
// so tailgateTopY < tailgateBottomY when the detection is consistent.
type GeometryResponse struct {
	PlateBox        []float64 `json:"plateBox,omitempty"` // [left, top, right, bottom]
	TailgateTopY    *float64  `json:"tailgateTopY,omitempty"`
	TailgateBottomY *float64  `json:"tailgateBottomY,omitempty"`
	CargoTopY       *float64  `json:"cargoTopY,omitempty"`
}

// FillRequest carries the photo plus context for fill estimation.
type FillRequest struct {
	ImageB64  string
	MIME      string
	Material  string
	Exemplars string
}

// FillResponse is one raw fill sample.
type FillResponse struct {
	FillRatioL     float64 `json:"fillRatioL"`
	FillRatioW     float64 `json:"fillRatioW"`
	TaperRatio     float64 `json:"taperRatio"`
	PackingDensity float64 `json:"packingDensity"`
	Reasoning      string  `json:"reasoning"`
}
