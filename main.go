// Command goppo updates a PPO agent on rollout batches stored as JSON
// files, logging the diagnostics of each update and checkpointing the
// agent as it learns.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment"
	"github.com/samuelfneumann/goppo/experiment/checkpointer"
	"github.com/samuelfneumann/goppo/experiment/tracker"
	"github.com/samuelfneumann/goppo/experiment/trackers"
)

var (
	configFile = flag.String("config", "ppo.yaml", "YAML, JSON, or TOML "+
		"hyperparameter file")
	batches = flag.String("batches", "batches/*.json", "glob of JSON "+
		"rollout batch files, replayed in lexical order")
	load     = flag.Bool("load", false, "load the agent's last checkpoint")
	every    = flag.Int("every", 10, "checkpoint every n updates")
	dataDir  = flag.String("data", "", "directory to save diagnostics to")
	progress = flag.Bool("progress", false, "display a progress bar")
	verbose  = flag.Int("v", 1, "log verbosity")
)

func main() {
	flag.Parse()

	logger := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(os.Stderr, args)
		}
	}, funcr.Options{Verbosity: *verbose, LogTimestamp: true})

	if err := run(logger); err != nil {
		logger.Error(err, "goppo failed")
		os.Exit(1)
	}
}

func run(logger logr.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := ppo.ConfigFromFile(*configFile)
	if err != nil {
		return err
	}

	agent, err := ppo.New(c, logger.WithName("ppo"))
	if err != nil {
		return err
	}
	defer agent.Close()

	if *load {
		if err := agent.Load(); err != nil {
			return err
		}
	}

	source, err := experiment.NewFileSource(*batches)
	if err != nil {
		return err
	}

	check, err := checkpointer.NewNStep(*every, agent)
	if err != nil {
		return err
	}

	var track []tracker.Tracker
	if *dataDir != "" {
		if err := os.MkdirAll(*dataDir, 0o755); err != nil {
			return err
		}
		file := func(name string) string {
			return filepath.Join(*dataDir, name)
		}
		track = append(track,
			trackers.NewDiagnostic(trackers.PolicyLoss, file("policyLoss.bin")),
			trackers.NewDiagnostic(trackers.ValueLoss, file("valueLoss.bin")),
			trackers.NewDiagnostic(trackers.ApproxKL, file("approxKL.bin")),
			trackers.NewChart("PPO diagnostics", file("diagnostics.html"),
				trackers.Series{Name: "policy loss", Field: trackers.PolicyLoss},
				trackers.Series{Name: "value loss", Field: trackers.ValueLoss},
				trackers.Series{Name: "approx kl", Field: trackers.ApproxKL},
				trackers.Series{Name: "approx entropy",
					Field: trackers.ApproxEntropy},
			),
		)
	}

	exp := experiment.NewReplay(agent, source, logger.WithName("replay"),
		[]checkpointer.Checkpointer{check}, track...)
	if *progress {
		exp.ShowProgress(os.Stdout, 50, true)
	}

	runErr := exp.Run(ctx)
	if err := exp.Save(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if err := agent.Save(); err != nil {
		return err
	}
	logger.Info("finished", "updates", exp.Updates())
	return nil
}
