package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fluxgo/internal/app"
	"fluxgo/internal/config"
	"fluxgo/internal/logger"
	"fluxgo/internal/metrics"
	"fluxgo/internal/node"
	"fluxgo/internal/schema"
	"fluxgo/internal/status"
	"fluxgo/internal/workflow"
)

// reportInput extends the base options with the demo workflow's own fields.
type reportInput struct {
	workflow.BaseInput

	Subject    string `json:"subject"`
	SampleSize int    `json:"sample_size"`
}

func newReportInput() workflow.Input {
	return &reportInput{
		BaseInput:  workflow.NewBaseInput(),
		SampleSize: 100,
	}
}

func (in *reportInput) Schema() schema.Fields {
	return append(in.BaseInput.Schema(),
		schema.Field{Name: "subject", Description: "Subject line of the generated report.", Required: true, Bind: &in.Subject},
		schema.Field{Name: "sample_size", Description: "Number of samples to collect.", Default: 100, Bind: &in.SampleSize},
	)
}

// buildReportWorkflow wires the demo graph: collect feeds aggregate, and
// publish only runs when aggregate actually completed. The notify step sits
// in its own execution group so its failure does not abort the run.
func buildReportWorkflow() (*workflow.Workflow, error) {
	wf := workflow.New("sample_report")
	wf.Description = "Collects samples, aggregates them and publishes a report."
	wf.Version = "1.0.0"

	collect := node.MustNew("collect_samples", func(n *node.Node) error {
		in, ok := n.WorkflowInput().(*reportInput)
		if !ok {
			return status.NewError(status.DataError, "unexpected input type")
		}
		samples := make([]float64, in.SampleSize)
		for i := range samples {
			samples[i] = rand.Float64() * 100
		}
		n.SetOutput(samples)
		return nil
	})
	collect.Description = "Draws the configured number of samples."
	collect.TimeoutSeconds = 30
	collect.MaxRetries = 2
	collect.RetryDelaySeconds = 1

	aggregate := node.MustNew("aggregate", func(n *node.Node) error {
		producer := n.Peer("collect_samples")
		if producer == nil {
			return status.NewError(status.DependencyUnavailable, "collect_samples not found")
		}
		samples, ok := producer.LastExecution().Output.([]float64)
		if !ok || len(samples) == 0 {
			return status.NewError(status.DataError, "no samples collected")
		}
		var sum float64
		for _, s := range samples {
			sum += s
		}
		n.SetOutput(map[string]any{
			"count": len(samples),
			"mean":  sum / float64(len(samples)),
		})
		return nil
	})
	aggregate.Description = "Computes summary statistics over the samples."
	aggregate.TimeoutSeconds = 10

	publish := node.MustNew("publish_report", func(n *node.Node) error {
		in, _ := n.WorkflowInput().(*reportInput)
		summary := n.Peer("aggregate").LastExecution().Output
		n.SetOutput(fmt.Sprintf("report %q: %v", in.Subject, summary))
		return nil
	})
	publish.Description = "Renders the report for the configured subject."

	notify := node.MustNew("notify", func(n *node.Node) error {
		n.SetOutput("notification sent")
		return nil
	})
	notify.Description = "Best-effort completion notification."

	for _, n := range []*node.Node{collect, aggregate, publish, notify} {
		if err := wf.AddNode(n); err != nil {
			return nil, err
		}
	}
	if err := wf.AddEdge("collect_samples", "aggregate"); err != nil {
		return nil, err
	}
	if err := wf.AddEdgeIfSourceCompleted("aggregate", "publish_report"); err != nil {
		return nil, err
	}
	if err := wf.AddExprEdge("aggregate", "notify", `nodes["aggregate"].status == "COMPLETED"`); err != nil {
		return nil, err
	}
	// the run succeeds as long as the report itself makes it out
	if err := wf.AddExecutionGroup("collect_samples", "aggregate", "publish_report"); err != nil {
		return nil, err
	}
	if err := wf.AddExecutionGroup("notify"); err != nil {
		return nil, err
	}
	return wf, nil
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logService := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		FilePath:  cfg.Logging.FilePath,
		Component: "fluxgo",
	})
	defer logService.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		if err := metrics.InitTracing(cfg.Tracing.ServiceName, cfg.Tracing.OTLPEndpoint); err != nil {
			logService.Warning("tracing disabled", "error", err.Error())
		} else {
			defer metrics.ShutdownTracing(context.Background())
		}
	}

	application := app.New("fluxgo", cfg, logService)

	report, err := buildReportWorkflow()
	if err != nil {
		log.Fatalf("build workflow: %v", err)
	}
	if err := application.AddEndpoint("sample_report", report, newReportInput); err != nil {
		log.Fatalf("register endpoint: %v", err)
	}

	if err := application.Run(ctx, flag.Args()); err != nil {
		log.Fatalf("fluxgo: %v", err)
	}
}
