package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/config"
)

var (
	flagDate    string
	flagPrevAQI float64
	flagJSON    bool
	flagLogs    int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict PM2.5 AQI for a target date",
	Long: `Predict PM2.5 AQI for --date given yesterday's observed value.

Counts against the shared daily limit, exactly like the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := common.ParseDate(flagDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ctx := cmd.Context()
		c, err := build(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer c.Close(context.Background())

		out := c.service.Predict(ctx, target, flagPrevAQI, "")
		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(out)
		}
		fmt.Println(renderOutcome(target, out))
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Show the assembled model input row without predicting",
	Long: `Assemble and print the full feature row for --date.

Does not load the model and does not count against the daily limit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := common.ParseDate(flagDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ctx := cmd.Context()
		c, err := build(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer c.Close(context.Background())

		row, err := c.assembler.Assemble(ctx, target, flagPrevAQI)
		if err != nil {
			return err
		}
		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(row)
		}
		fmt.Println(renderRow(row))
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's shared prediction usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ctx := cmd.Context()
		c, err := build(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer c.Close(context.Background())

		u := c.tracker.Current(ctx)
		fmt.Println(renderUsage(u))

		if flagLogs > 0 {
			entries, err := c.audit.Recent(ctx, flagLogs)
			if err != nil {
				return fmt.Errorf("reading logs: %w", err)
			}
			fmt.Println(renderLogs(entries))
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{predictCmd, featuresCmd} {
		cmd.Flags().StringVar(&flagDate, "date", "", "target date (YYYY-MM-DD)")
		cmd.Flags().Float64Var(&flagPrevAQI, "prev-aqi", 0, "observed PM2.5 AQI for the day before --date")
		cmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON instead of a table")
		_ = cmd.MarkFlagRequired("date")
		_ = cmd.MarkFlagRequired("prev-aqi")
	}
	usageCmd.Flags().IntVar(&flagLogs, "logs", 0, "also show the N most recent log entries")
}
