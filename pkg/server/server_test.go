package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/starter"
)

type stubStarter struct {
	got  []string
	resp starter.Response
}

func (s *stubStarter) Handle(_ context.Context, passcode string) starter.Response {
	s.got = append(s.got, passcode)
	return s.resp
}

type stubCleaner struct {
	report models.CleanupReport
	err    error
	calls  int
}

func (s *stubCleaner) Run(context.Context) (models.CleanupReport, error) {
	s.calls++
	return s.report, s.err
}

func TestRouterProvision(t *testing.T) {
	stub := &stubStarter{resp: starter.Response{
		StatusCode: http.StatusOK,
		Body: starter.Body{
			Message:  starter.MessageCreated,
			Instance: &models.LaunchedInstance{InstanceID: "i-1", InstanceType: "c7i.2xlarge"},
		},
	}}
	srv := httptest.NewServer(NewRouter(stub))
	defer srv.Close()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			req, err := http.NewRequest(method, srv.URL+"/", nil)
			require.NoError(t, err)
			req.Header.Set("passcode", "secret")

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

			var body starter.Body
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, starter.MessageCreated, body.Message)
			require.NotNil(t, body.Instance)
			assert.Equal(t, "i-1", body.Instance.InstanceID)
		})
	}

	assert.Equal(t, []string{"secret", "secret"}, stub.got)
}

func TestRouterPassesStatusThrough(t *testing.T) {
	stub := &stubStarter{resp: starter.Response{
		StatusCode: http.StatusUnauthorized,
		Body:       starter.Body{Message: starter.MessageUnauthorized},
	}}

	rec := httptest.NewRecorder()
	NewRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
	assert.Equal(t, []string{""}, stub.got)
}

func TestRouterHealthz(t *testing.T) {
	stub := &stubStarter{}

	rec := httptest.NewRecorder()
	NewRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Empty(t, stub.got)
}

func TestFunctionURLHandler(t *testing.T) {
	stub := &stubStarter{resp: starter.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       starter.Body{Message: starter.MessageCreateFailed, Error: "capacity"},
	}}

	resp, err := FunctionURLHandler(stub)(context.Background(), events.LambdaFunctionURLRequest{
		Headers: map[string]string{"passcode": "secret"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"message":"Instance creation failed","error":"capacity"}`, resp.Body)
	assert.Equal(t, []string{"secret"}, stub.got)
}

func TestFunctionURLHandlerHeaderCase(t *testing.T) {
	stub := &stubStarter{resp: starter.Response{StatusCode: http.StatusBadRequest, Body: starter.Body{Message: starter.MessageExists}}}

	_, err := FunctionURLHandler(stub)(context.Background(), events.LambdaFunctionURLRequest{
		Headers: map[string]string{"Passcode": "secret"},
	})
	require.NoError(t, err)

	_, err = FunctionURLHandler(stub)(context.Background(), events.LambdaFunctionURLRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{"secret", ""}, stub.got)
}

func TestScheduledHandler(t *testing.T) {
	cleaner := &stubCleaner{report: models.CleanupReport{TerminatedInstances: []string{"i-1"}}}

	report, err := ScheduledHandler(cleaner)(context.Background(), events.CloudWatchEvent{ID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1"}, report.TerminatedInstances)
	assert.Equal(t, 1, cleaner.calls)

	cleaner.err = errors.New("throttled")
	_, err = ScheduledHandler(cleaner)(context.Background(), events.CloudWatchEvent{})
	assert.EqualError(t, err, "throttled")
}
