package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/scheduler"
	"github.com/wonny/twstock/internal/scheduler/jobs"
	"github.com/wonny/twstock/internal/syncer"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run updates on a schedule",
	Long: `Run the update jobs on a cron schedule in the market timezone.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job now

Jobs:
  update_all    weekdays 15:30   registry, quotes, index, futures
  future_codes  weekdays 08:30   futures mapping only

Example:
  go run ./cmd/twstock scheduler start
  go run ./cmd/twstock scheduler run update_all`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler (Ctrl+C to stop)",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %-14s next %s\n", jobName, next.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	for jobName, stat := range sched.GetJobStats() {
		if stat.TotalRuns == 0 {
			continue
		}
		fmt.Printf("📊 %s: %d runs, %d failed\n", jobName, stat.TotalRuns, stat.FailureCount)
	}

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	stats := sched.GetJobStats()

	widths := []int{14, 22}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, jobName := range sched.GetAllJobs() {
		PrintTableRow([]string{jobName, stats[jobName].Schedule}, widths)
	}
	fmt.Printf("\nTimezone: %s\n", a.cfg.Market.Location)

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

func initScheduler(cmd *cobra.Command) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	horizon := func() time.Time {
		today, err := a.horizon()
		if err != nil {
			a.log.WithError(err).Warn("Invalid --today, using the market clock")
			return syncer.Horizon(time.Now(), a.cfg.Market.Location, a.cfg.Market.CloseCutoff)
		}
		return today
	}

	sched := scheduler.New(a.log, scheduler.WithLocation(a.cfg.Market.Location))

	for _, job := range []scheduler.Job{
		jobs.NewUpdateAllJob(a.orchestrator, horizon, a.log),
		jobs.NewFutureCodesJob(a.orchestrator, horizon, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			a.close()
			return nil, nil, fmt.Errorf("init scheduler: %w", err)
		}
	}

	return a, sched, nil
}
