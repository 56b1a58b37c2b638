package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "exam-scheduler",
	Short:        "Examination timetable generator",
	SilenceUsage: true,
}
