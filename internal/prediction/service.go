// Package prediction is the entry point used by the HTTP routes and the CLI:
// quota check, feature assembly, model call and bookkeeping.
package prediction

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/aqi-nextday/internal/auditlog"
	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
	"github.com/i474232898/aqi-nextday/internal/model"
	"github.com/i474232898/aqi-nextday/internal/pipeline"
	"github.com/i474232898/aqi-nextday/internal/quota"
)

const (
	QuotaExhaustedMessage = "Sorry, the total prediction limit for today has been reached. Please try again tomorrow."
	FailureMessage        = "Prediction failed. Please try again later."
)

// Assembler produces the full feature row for a target day.
type Assembler interface {
	Assemble(ctx context.Context, target time.Time, priorAQI float64) (features.Row, error)
}

// Outcome is the result of one prediction request. Exactly one of Value or
// Message is set; Features accompanies Value.
type Outcome struct {
	Value         *float64      `json:"predictedAqi,omitempty"`
	Features      *features.Row `json:"features,omitempty"`
	Message       string        `json:"message,omitempty"`
	QuotaExceeded bool          `json:"quotaExceeded,omitempty"`
	Usage         quota.Usage   `json:"usage"`
}

// Service wires the assembler, the model and the two shared stores.
type Service struct {
	assembler Assembler
	model     model.Regressor
	selected  []string
	quota     *quota.Tracker
	audit     *auditlog.Logger
}

// NewService creates a Service. selected is the model's input column order.
func NewService(a Assembler, m model.Regressor, selected []string, q *quota.Tracker, l *auditlog.Logger) *Service {
	return &Service{
		assembler: a,
		model:     m,
		selected:  selected,
		quota:     q,
		audit:     l,
	}
}

// Usage returns today's counter without consuming a prediction.
func (s *Service) Usage(ctx context.Context) quota.Usage {
	return s.quota.Current(ctx)
}

// Predict runs one prediction for target given the observed prior-day AQI.
// It never returns an error: failures become Outcome.Message and their cause
// goes to the audit log only.
func (s *Service) Predict(ctx context.Context, target time.Time, priorAQI float64, clientIP string) Outcome {
	usage := s.quota.Current(ctx)
	if usage.Exhausted() {
		log.Printf("INFO: prediction: quota exhausted (%d/%d)", usage.Count, usage.Max)
		return Outcome{Message: QuotaExhaustedMessage, QuotaExceeded: true, Usage: usage}
	}

	target = common.DateOnly(target)
	query := fmt.Sprintf("target_date=%s, prev_aqi=%v", target.Format(common.DateLayout), priorAQI)

	value, row, err := s.run(ctx, target, priorAQI)
	if err != nil {
		log.Printf("ERROR: prediction: %s: %v", query, err)
		s.audit.Append(ctx, auditlog.Record{
			Route:    auditlog.RoutePredictionError,
			Query:    query,
			Response: err.Error(),
			IP:       clientIP,
		})
		return Outcome{Message: FailureMessage, Usage: usage}
	}

	next := usage
	if res := s.quota.Increment(ctx, usage); res.OK() {
		next.Count++
	}
	s.audit.Append(ctx, auditlog.Record{
		Route:    auditlog.RoutePrediction,
		Query:    query,
		Response: fmt.Sprintf("predicted_aqi=%v", value),
		IP:       clientIP,
	})

	log.Printf("INFO: prediction: %s -> %.2f", query, value)
	return Outcome{Value: &value, Features: &row, Usage: next}
}

func (s *Service) run(ctx context.Context, target time.Time, priorAQI float64) (float64, features.Row, error) {
	row, err := s.assembler.Assemble(ctx, target, priorAQI)
	if err != nil {
		return 0, features.Row{}, err
	}
	row, err = row.Select(s.selected)
	if err != nil {
		return 0, features.Row{}, fmt.Errorf("%w: %v", pipeline.ErrFeatureGeneration, err)
	}
	x, err := row.Vector(s.selected)
	if err != nil {
		return 0, features.Row{}, err
	}
	y, err := s.model.Predict(ctx, x)
	if err != nil {
		return 0, features.Row{}, fmt.Errorf("model: %w", err)
	}
	return y, row, nil
}
