package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/aqi-nextday/internal/upstream"
)

// Remote calls an external inference server: POST {baseURL}/predict.
type Remote struct {
	url          string
	featureNames []string
	client       *upstream.Client
}

type remoteRequest struct {
	FeatureNames []string    `json:"feature_names"`
	Instances    [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
}

func NewRemote(client *http.Client, baseURL string, featureNames []string) *Remote {
	return &Remote{
		url:          strings.TrimRight(baseURL, "/") + "/predict",
		featureNames: featureNames,
		client:       upstream.New("model", client, upstream.NoRetry),
	}
}

func (r *Remote) Predict(ctx context.Context, x []float64) (float64, error) {
	if len(r.featureNames) > 0 && len(x) != len(r.featureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(r.featureNames))
	}
	body, err := json.Marshal(remoteRequest{FeatureNames: r.featureNames, Instances: [][]float64{x}})
	if err != nil {
		return 0, fmt.Errorf("marshal model request: %w", err)
	}

	resp, err := r.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode model response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("model returned %d predictions, want 1", len(out.Predictions))
	}
	return out.Predictions[0], nil
}
