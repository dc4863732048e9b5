package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"axiapac.com/timeclock/app"
	"axiapac.com/timeclock/config"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// JobEvent names the job to run. EventBridge rules deliver it either as the
// whole payload or as the detail of a scheduled event.
type JobEvent struct {
	Job string `json:"job"`
}

type JobResult struct {
	Job     string  `json:"job"`
	Status  string  `json:"status"`
	Elapsed float64 `json:"elapsedSeconds"`
	Error   string  `json:"error,omitempty"`
}

type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

type Handler struct {
	runner JobRunner
	logger *slog.Logger
}

// parseEvent accepts a plain JobEvent or an EventBridge envelope.
func parseEvent(raw json.RawMessage) (JobEvent, error) {
	var ev JobEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if ev.Job != "" {
		return ev, nil
	}

	var cw events.CloudWatchEvent
	if err := json.Unmarshal(raw, &cw); err == nil && len(cw.Detail) > 0 {
		if err := json.Unmarshal(cw.Detail, &ev); err != nil {
			return ev, fmt.Errorf("failed to unmarshal event detail: %w", err)
		}
	}
	if ev.Job == "" {
		return ev, errors.New("event does not name a job")
	}
	return ev, nil
}

func (h *Handler) HandleRequest(ctx context.Context, raw json.RawMessage) (JobResult, error) {
	ev, err := parseEvent(raw)
	if err != nil {
		return JobResult{}, err
	}

	h.logger.Info("job requested", "job", ev.Job)
	start := time.Now()
	err = h.runner.RunNow(ctx, ev.Job)
	res := JobResult{Job: ev.Job, Status: "completed", Elapsed: time.Since(start).Seconds()}
	if err != nil {
		res.Status = "failed"
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load(ctx, os.Getenv("TIMECLOCK_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	h := &Handler{runner: a.Scheduler, logger: logger}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(h.HandleRequest)
		return
	}

	// Local run: the first argument names the job.
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <job>\navailable: %v\n", os.Args[0], a.Scheduler.JobNames())
		os.Exit(2)
	}
	payload, _ := json.Marshal(JobEvent{Job: os.Args[1]})
	res, err := h.HandleRequest(ctx, payload)
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		os.Exit(1)
	}
}
