package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/pathwatch/config"
	"github.com/tailored-agentic-units/pathwatch/metrics"
	"github.com/tailored-agentic-units/pathwatch/observability"
	"github.com/tailored-agentic-units/pathwatch/scenario"
)

func newRunCmd(verbose *bool) *cobra.Command {
	var (
		adapter     string
		configFile  string
		showMetrics bool
	)

	names := make([]string, 0, 4)
	for _, a := range scenario.Adapters() {
		names = append(names, string(a))
	}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print every notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := scenario.ParseAdapter(adapter)
			if err != nil {
				return err
			}

			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			// the scenario's own walker section wins over the config file
			if configFile != "" {
				cfg, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg.Merge(&s.Walker)
				s.Walker = *cfg
			}

			obs, err := cliObserver(*verbose)
			if err != nil {
				return err
			}

			m := metrics.New()
			result, err := scenario.NewRunner(s,
				scenario.WithAdapter(a),
				scenario.WithMetrics(m),
				scenario.WithObserver(obs),
			).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scenario %s failed: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			for _, rec := range result.Records {
				fmt.Fprintf(out, "[%d] %s\n", rec.Step, rec.Line)
			}
			fmt.Fprintf(out, "final: %s\n", result.Final)

			if showMetrics {
				return printMetrics(cmd, m)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&adapter, "adapter", "a", string(scenario.AdapterCombined),
		"Notification adapter ("+strings.Join(names, "|")+")")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Walker config file (JSON or YAML)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print walker metrics after the run")
	return cmd
}

// cliObserver logs walker events through the registered "slog" observer and
// counts them through "otel". Without verbose only warnings pass.
func cliObserver(verbose bool) (observability.Observer, error) {
	obs := observability.NewMultiObserver()
	for _, name := range []string{"slog", "otel"} {
		o, err := observability.GetObserver(name)
		if err != nil {
			return nil, err
		}
		obs.Add(o)
	}

	if verbose {
		return obs, nil
	}
	return observability.LevelFilter{Min: observability.LevelWarning, Next: obs}, nil
}

// printMetrics gathers m through a private Prometheus registry and prints one
// line per series.
func printMetrics(cmd *cobra.Command, m *metrics.Metrics) error {
	reg := prometheus.NewRegistry()
	if err := metrics.NewCollectors("pathwatch", m).Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, mf := range families {
		for _, series := range mf.GetMetric() {
			var v float64
			switch {
			case series.GetGauge() != nil:
				v = series.GetGauge().GetValue()
			case series.GetCounter() != nil:
				v = series.GetCounter().GetValue()
			}
			fmt.Fprintf(out, "%s %g\n", mf.GetName(), v)
		}
	}
	return nil
}
