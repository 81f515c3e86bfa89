package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbegin/stepseq-go"
)

func runHeadless(cmd *cobra.Command, args []string) error {
	if bars < 0 {
		return errors.Errorf("--bars must not be negative, got %d", bars)
	}
	m, cleanup, err := openMachine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := m.Watch()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	m.Toggle()

	log := logrus.WithField("component", "run")
	steps := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind != stepseq.EventStep {
				continue
			}
			steps += ev.Crossed
			if ev.Step == 0 {
				log.WithField("bar", steps/stepseq.Steps+1).Info("bar")
			}
			if bars > 0 && steps >= bars*stepseq.Steps {
				m.Stop()
				cancel()
			}
		case err := <-done:
			m.Stop()
			log.WithFields(logrus.Fields{
				"steps":    steps,
				"dropped":  m.Dropped(),
				"failures": m.Failures(),
			}).Info("done")
			return runResult(err)
		}
	}
}

// runResult drops the cancellation that ends every normal Run.
func runResult(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
