package httpapi

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/prediction"
	"github.com/i474232898/aqi-nextday/internal/quota"
)

var validate = validator.New()

// BoundsLookahead is how far past the latest AQI record a target may be.
const BoundsLookahead = 2

// Predictor is the prediction entry point.
type Predictor interface {
	Predict(ctx context.Context, target time.Time, priorAQI float64, clientIP string) prediction.Outcome
	Usage(ctx context.Context) quota.Usage
}

// LatestFunc returns the most recent day in the AQI history.
type LatestFunc func(ctx context.Context) (time.Time, error)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Predictor, latest LatestFunc) {
	v1 := app.Group("/api/v1")

	v1.Post("/predict", func(c *fiber.Ctx) error {
		var req predictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		target, err := common.ParseDate(req.TargetDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "targetDate must be YYYY-MM-DD")
		}

		out := svc.Predict(c.UserContext(), target, *req.PrevAQI, c.IP())
		switch {
		case out.QuotaExceeded:
			return c.Status(fiber.StatusTooManyRequests).JSON(out)
		case out.Value == nil:
			return c.Status(fiber.StatusBadGateway).JSON(out)
		}
		return c.JSON(out)
	})

	v1.Get("/usage", func(c *fiber.Ctx) error {
		u := svc.Usage(c.UserContext())
		return c.JSON(fiber.Map{
			"count":     u.Count,
			"max":       u.Max,
			"remaining": u.Remaining(),
			"lastReset": u.LastReset.Format(common.DateLayout),
		})
	})

	v1.Get("/bounds", func(c *fiber.Ctx) error {
		day, err := latest(c.UserContext())
		if err != nil {
			log.Printf("ERROR: bounds: %v", err)
			return fiber.NewError(fiber.StatusBadGateway, "failed to read AQI history")
		}
		return c.JSON(fiber.Map{
			"latestAqiDate": day.Format(common.DateLayout),
			"maxTargetDate": day.AddDate(0, 0, BoundsLookahead).Format(common.DateLayout),
		})
	})
}

// predictRequest is the body of POST /predict.
type predictRequest struct {
	TargetDate string   `json:"targetDate" validate:"required,datetime=2006-01-02"`
	PrevAQI    *float64 `json:"prevAqi" validate:"required,gte=0,lte=1000"`
}
