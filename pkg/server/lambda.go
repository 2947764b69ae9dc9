package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/starter"
)

// FunctionURLHandler adapts a Lambda Function URL invocation to the starter
func FunctionURLHandler(s Starter) func(context.Context, events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	return func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		resp := s.Handle(ctx, header(req.Headers, starter.PasscodeHeader))

		body, err := json.Marshal(resp.Body)
		if err != nil {
			return events.LambdaFunctionURLResponse{}, err
		}

		return events.LambdaFunctionURLResponse{
			StatusCode: resp.StatusCode,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       string(body),
		}, nil
	}
}

// ScheduledHandler adapts a scheduled EventBridge invocation to the janitor.
// A failed run fails the invocation.
func ScheduledHandler(c Cleaner) func(context.Context, events.CloudWatchEvent) (models.CleanupReport, error) {
	return func(ctx context.Context, event events.CloudWatchEvent) (models.CleanupReport, error) {
		log.WithFields(log.Fields{
			"eventId": event.ID,
			"time":    event.Time,
		}).Info("scheduled cleanup triggered")
		return c.Run(ctx)
	}
}

// header looks a header up case-insensitively. Function URLs lower-case
// header names but test clients may not.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
