package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/service"
	"github.com/noah-isme/sma-exam-scheduler/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
	"github.com/noah-isme/sma-exam-scheduler/pkg/logger"
	"github.com/noah-isme/sma-exam-scheduler/pkg/response"
)

type solveFlags struct {
	input        string
	timeLimit    time.Duration
	workers      int
	allowPartial bool
	logLevel     string
}

var solveOpts solveFlags

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Generate a schedule from a snapshot file and print it as JSON",
	Long: "Reads a generation request (config, subjects and rooms) from --input, or stdin when the\n" +
		"value is \"-\", and prints the schedule or the failure diagnosis as JSON on stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logr, err := logger.Build(config.EnvDevelopment, config.LogConfig{Level: solveOpts.logLevel, Format: "console"})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logr.Sync() //nolint:errcheck

		in := cmd.InOrStdin()
		if solveOpts.input != "-" {
			f, err := os.Open(solveOpts.input)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer f.Close()
			in = f
		}
		return runSolve(ctx, in, cmd.OutOrStdout(), solveOpts, logr)
	},
}

func init() {
	solveCmd.Flags().StringVarP(&solveOpts.input, "input", "i", "", "snapshot JSON file, or - for stdin")
	solveCmd.Flags().DurationVar(&solveOpts.timeLimit, "time-limit", 0, "search budget, overrides timeLimitSeconds in the snapshot")
	solveCmd.Flags().IntVar(&solveOpts.workers, "workers", 0, "parallel search workers (0 = GOMAXPROCS)")
	solveCmd.Flags().BoolVar(&solveOpts.allowPartial, "allow-partial", false, "print the best partial schedule when the budget runs out")
	solveCmd.Flags().StringVar(&solveOpts.logLevel, "log-level", "warn", "log level written to stderr")
	_ = solveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(solveCmd)
}

// runSolve decodes a snapshot, generates a schedule and writes the response envelope to out. A
// failed generation still writes its diagnosis before returning the error.
func runSolve(ctx context.Context, in io.Reader, out io.Writer, flags solveFlags, logr *zap.Logger) error {
	var req dto.GenerateExamScheduleRequest
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	maxLimit := 10 * time.Minute
	if flags.timeLimit > 0 {
		req.TimeLimitSeconds = int((flags.timeLimit + time.Second - 1) / time.Second)
		maxLimit = flags.timeLimit
	}
	if flags.allowPartial {
		req.AllowPartial = true
	}

	svc := service.NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, logr, service.ExamScheduleConfig{
		MaxTimeLimit: maxLimit,
		Workers:      flags.workers,
	})

	resp, genErr := svc.Generate(ctx, req)
	envelope := response.Envelope{Data: resp}
	if genErr != nil {
		envelope = response.Envelope{Error: appErrors.FromError(genErr)}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return genErr
}
