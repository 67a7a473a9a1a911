package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	marketap "github.com/marketap/marketap-sdk-go"
)

// NewTrackCommand creates the track command.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		propsJSON string
		eventID   string
	)

	cmd := &cobra.Command{
		Use:   "track <event-name>",
		Short: "Send a behavioral event",
		Long: `Send a behavioral event to the configured project.

Properties are given as a JSON object. The command blocks until the
event (and any queued retries it unlocks) has been flushed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(rootOpts, cmd, args[0], propsJSON, eventID)
		},
	}

	cmd.Flags().StringVarP(&propsJSON, "props", "p", "", "event properties as a JSON object")
	cmd.Flags().StringVar(&eventID, "id", "", "idempotency id for server-side dedup")

	return cmd
}

func runTrack(opts *RootOptions, cmd *cobra.Command, eventName, propsJSON, eventID string) error {
	formatter := newFormatter(opts, cmd)

	props, err := parseProps(propsJSON)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --props", err)
	}

	client, err := openClient(opts)
	if err != nil {
		return err
	}

	client.TrackEvent(eventName, props, eventID, time.Time{})
	if err := client.Close(); err != nil {
		return WrapExitError(ExitCommandError, "close client", err)
	}

	formatter.VerboseLog("event %q flushed", eventName)
	return formatter.Success(fmt.Sprintf("tracked %s", eventName))
}

// parseProps decodes a --props JSON object, tolerating the empty string.
func parseProps(propsJSON string) (map[string]any, error) {
	if propsJSON == "" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// openClient builds an SDK client from the resolved config.
func openClient(opts *RootOptions) (*marketap.Client, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if err := requireProject(cfg); err != nil {
		return nil, err
	}

	client, err := marketap.NewClient(marketap.Config{
		ProjectID:    cfg.ProjectID,
		EventBaseURL: cfg.EventBaseURL,
		CRMBaseURL:   cfg.CRMBaseURL,
		StoragePath:  cfg.StoragePath,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init client", err)
	}
	return client, nil
}
