package main

import (
	"os"
)

// @title Exam Scheduler API
// @version 1.0.0
// @description Generates, stores and validates examination timetables.
// @BasePath /api/v1
// @schemes http

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
