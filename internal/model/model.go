// Package model holds the trained regressor consumed by the prediction service.
package model

import (
	"context"
	"errors"
)

// Regressor maps an ordered feature vector to a single prediction.
type Regressor interface {
	Predict(ctx context.Context, x []float64) (float64, error)
}

var (
	// ErrDimension is returned when a vector does not match the model's inputs.
	ErrDimension = errors.New("feature vector dimension mismatch")
	// ErrInvalidModel is returned for a malformed model artifact.
	ErrInvalidModel = errors.New("invalid model artifact")
)
