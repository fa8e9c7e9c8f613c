// Command lambda is the AWS Lambda bootstrap. One binary serves every
// function; a deployment binds it to one function through the FUNCTION
// environment variable, or leaves FUNCTION unset and names the function in
// each event.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/app"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/config"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/engine"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/logging"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/version"
)

// Event is the invocation payload. Every field is optional.
type Event struct {
	Function string   `json:"function,omitempty"`
	DryRun   *bool    `json:"dry_run,omitempty"`
	Regions  []string `json:"regions,omitempty"`
	DaysBack int      `json:"days_back,omitempty"`
	Profile  string   `json:"profile,omitempty"`
}

// handler is built once per cold start and reused across invocations. When
// setup failed, initErr is set and every invocation answers with it.
type handler struct {
	app      *app.App
	function string
	dryRun   bool
	initErr  error
}

// failedHandler serves the 500 shape for a cold start that could not wire
// the application, e.g. an unreadable POLICY_FILE.
func failedHandler(err error) *handler {
	return &handler{initErr: fmt.Errorf("cold start: %w", err)}
}

func newHandler(a *app.App, function string) *handler {
	h := &handler{app: a, function: function}
	if a.Config != nil {
		h.dryRun = a.Config.DryRun
	}
	return h
}

// setup loads configuration from the environment and wires the application.
// Without a REGIONS override the function covers the region it runs in.
func setup(ctx context.Context) (*handler, error) {
	cfg, err := config.NewFileLoader("").Load()
	if err != nil {
		return nil, err
	}
	if len(cfg.AWS.Regions) == 0 && cfg.AWS.DefaultRegion != "" {
		cfg.AWS.Regions = []string{cfg.AWS.DefaultRegion}
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return nil, err
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	function := os.Getenv("FUNCTION")
	logger.Info("cold start", "version", version.Version, "commit", version.Commit, "function", function)
	return newHandler(a, function), nil
}

// Handle runs the selected function. Every failure, including a failed cold
// start or a bad function selection, is reported as a 500 with an
// {"error": msg} body; the returned error is always nil so Lambda does not
// retry.
func (h *handler) Handle(ctx context.Context, ev Event) (events.APIGatewayProxyResponse, error) {
	log := slog.Default()
	if h.app != nil && h.app.Logger != nil {
		log = h.app.Logger
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With("request_id", lc.AwsRequestID)
	}
	if h.initErr != nil {
		log.Error("invocation rejected", "error", h.initErr)
		return errorResponse(h.initErr.Error()), nil
	}

	id := h.function
	if id == "" {
		id = ev.Function
	}
	if id == "" {
		return errorResponse("no function selected: set FUNCTION or the event's function field"), nil
	}
	if ev.Function != "" && ev.Function != id {
		return errorResponse(fmt.Sprintf("this deployment serves %s, not %s", id, ev.Function)), nil
	}
	fn, err := h.app.Registry.Lookup(id)
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	req := engine.Request{
		Profile:  ev.Profile,
		Regions:  ev.Regions,
		DaysBack: ev.DaysBack,
		DryRun:   h.dryRun,
	}
	if ev.DryRun != nil {
		req.DryRun = *ev.DryRun
	}

	resp := engine.NewRunner(h.app.Sink, log).Handle(ctx, fn, req)
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       resp.Body,
	}, nil
}

func errorResponse(msg string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusInternalServerError,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func main() {
	h, err := setup(context.Background())
	if err != nil {
		slog.Error("cold start failed", "error", err)
		h = failedHandler(err)
	}
	lambda.Start(h.Handle)
}
