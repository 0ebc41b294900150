// Command servsim runs a cluster scheduling simulation described by a
// YAML scenario file against an SWF workload trace, printing a per-job
// report and the collected metrics.
package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/report"
	"github.com/servsim/servsim/scheduler"
	"github.com/servsim/servsim/server"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
	"github.com/servsim/servsim/workload"
)

type availabilityConfig struct {
	DayStart  int     `yaml:"dayStart"`
	HourStart int     `yaml:"hourStart"`
	DayEnd    int     `yaml:"dayEnd"`
	HourEnd   int     `yaml:"hourEnd"`
	Value     float64 `yaml:"value"`
}

type scenarioConfig struct {
	Name           string               `yaml:"name"`
	Capacity       int                  `yaml:"capacity"`
	Policy         string               `yaml:"policy"`
	Order          string               `yaml:"order"`
	Trace          string               `yaml:"trace"`
	TimeSpan       int64                `yaml:"timespan"`
	ResumeOverhead int64                `yaml:"resumeOverhead"`
	Availability   []availabilityConfig `yaml:"availability"`
}

func loadScenario(path string) (*scenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	cfg := &scenarioConfig{
		Name:     "cluster",
		Capacity: 1,
		Policy:   "fcfs",
		Order:    "fifo",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if cfg.Capacity < 1 {
		return nil, errors.Errorf("scenario %s: invalid capacity %d", path, cfg.Capacity)
	}
	return cfg, nil
}

func comparatorFor(order string) (scheduler.JobComparator, error) {
	switch order {
	case "", "fifo":
		return scheduler.FIFOOrder, nil
	case "priority":
		return scheduler.PriorityOrder, nil
	case "deadline":
		return scheduler.DeadlineOrder, nil
	default:
		return nil, errors.Errorf("unknown queue order %q", order)
	}
}

func schedulerFor(cfg *scenarioConfig, stat stats.Receiver) (server.Scheduler, error) {
	cmp, err := comparatorFor(cfg.Order)
	if err != nil {
		return nil, err
	}
	name := cfg.Name + "-scheduler"
	switch cfg.Policy {
	case "", "fcfs":
		return scheduler.NewFCFSScheduler(name, cmp, stat), nil
	case "preemption":
		var overhead job.ResumeOverhead
		if cfg.ResumeOverhead > 0 {
			overhead = job.FixedResumeOverhead(cfg.ResumeOverhead)
		}
		return scheduler.NewPreemptionScheduler(name, cmp, overhead, stat), nil
	case "aggressive", "easy":
		return scheduler.NewAggressiveBackfillScheduler(name, cmp, stat), nil
	case "conservative":
		return scheduler.NewConservativeBackfillScheduler(name, cmp, stat), nil
	case "reservation":
		return scheduler.NewReservationBackfillScheduler(name, cmp, stat), nil
	default:
		return nil, errors.Errorf("unknown policy %q", cfg.Policy)
	}
}

func availabilityFor(cfg *scenarioConfig) (server.Availability, error) {
	if len(cfg.Availability) == 0 {
		return server.FullAvailability{}, nil
	}
	hourly := server.NewHourlyAvailability()
	for _, a := range cfg.Availability {
		err := hourly.SetAvailability(time.Weekday(a.DayStart), a.HourStart,
			time.Weekday(a.DayEnd), a.HourEnd, a.Value)
		if err != nil {
			return nil, errors.Wrap(err, "scenario availability")
		}
	}
	return hourly, nil
}

func runScenario(configPath, tracePath string) error {
	cfg, err := loadScenario(configPath)
	if err != nil {
		return err
	}
	if tracePath != "" {
		cfg.Trace = tracePath
	}
	if cfg.Trace == "" {
		return errors.New("no workload trace configured")
	}

	stat := stats.NewReceiver()
	simulation := sim.New(time.Second)
	if cfg.TimeSpan > 0 {
		simulation.SetTimeSpan(cfg.TimeSpan, true)
	}

	sched, err := schedulerFor(cfg, stat)
	if err != nil {
		return err
	}
	avail, err := availabilityFor(cfg)
	if err != nil {
		return err
	}

	collector := report.NewCollector()
	srv, err := server.NewBuilder(simulation).
		Name(cfg.Name).
		Scheduler(sched).
		Capacity(cfg.Capacity).
		Availability(avail).
		WorkUnitListener(collector.Listen).
		Build()
	if err != nil {
		return err
	}

	reader := workload.NewSWFReader(cfg.Name+"-workload", cfg.Trace, srv.ID(), stat)
	simulation.Register(reader)

	if err := simulation.Run(); err != nil {
		return err
	}
	if err := reader.Err(); err != nil {
		return err
	}

	log.Infof("simulation %s finished at time %d: %d jobs submitted, %d returned",
		cfg.Name, simulation.Clock().Time(), reader.Submitted(), reader.Received())

	if err := collector.WriteJobReport(os.Stdout); err != nil {
		return err
	}
	if err := collector.WriteSummary(os.Stdout); err != nil {
		return err
	}
	return report.WriteMetrics(os.Stdout, stat)
}

func main() {
	var configPath, tracePath, logLevel string

	rootCmd := &cobra.Command{
		Use:   "servsim",
		Short: "Discrete-event cluster job scheduling simulator",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log level (trace|debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario described by a YAML config against an SWF trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return errors.Wrap(err, "parsing log level")
			}
			log.SetLevel(level)
			return runScenario(configPath, tracePath)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "scenario.yaml", "scenario configuration file")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "SWF workload trace, overrides the scenario's")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
