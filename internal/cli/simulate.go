package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/rules"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// SimulationResult reports which campaigns an event would trigger.
type SimulationResult struct {
	EventName string   `json:"event_name"`
	Matched   []string `json:"matched"`
	Evaluated int      `json:"evaluated"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		propsJSON  string
		deviceJSON string
	)

	cmd := &cobra.Command{
		Use:   "simulate <campaigns-file> <event-name>",
		Short: "Evaluate trigger conditions locally",
		Long: `Evaluate an event against a campaign definition file using the same
condition engine the SDK runs on device. Frequency caps and display
locks are ignored: this answers "does the condition match", not "would
it display right now".`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, cmd, args[0], args[1], propsJSON, deviceJSON)
		},
	}

	cmd.Flags().StringVarP(&propsJSON, "props", "p", "", "event properties as a JSON object")
	cmd.Flags().StringVar(&deviceJSON, "device", "", "device attributes as a JSON object")

	return cmd
}

func runSimulate(opts *RootOptions, cmd *cobra.Command, path, eventName, propsJSON, deviceJSON string) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return NewExitError(ExitCommandError, "cannot read campaign file")
	}
	if verrs := validateCampaignJSON(path, data); len(verrs) > 0 {
		for _, ve := range verrs {
			formatter.Error(ve.Code, ve.Message, nil)
		}
		return NewExitError(ExitFailure, "campaign file is invalid")
	}

	var campaigns []model.Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return NewExitError(ExitCommandError, "cannot decode campaign file")
	}

	event, device, err := buildSimulationInput(eventName, propsJSON, deviceJSON)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid input", err)
	}

	now := time.Now()
	result := SimulationResult{EventName: eventName, Evaluated: len(campaigns)}
	for _, c := range campaigns {
		if rules.IsTriggered(c.TriggerCondition, event, device, now) {
			result.Matched = append(result.Matched, c.ID)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if len(result.Matched) == 0 {
		return formatter.Success(fmt.Sprintf("no campaign matches %q (%d evaluated)", eventName, result.Evaluated))
	}
	return formatter.Success(fmt.Sprintf("matched: %s", strings.Join(result.Matched, ", ")))
}

func buildSimulationInput(eventName, propsJSON, deviceJSON string) (model.Event, value.Object, error) {
	props, err := parseProps(propsJSON)
	if err != nil {
		return model.Event{}, nil, fmt.Errorf("--props: %w", err)
	}
	eventProps, err := value.ObjectFromAny(props)
	if err != nil {
		return model.Event{}, nil, fmt.Errorf("--props: %w", err)
	}

	deviceProps, err := parseProps(deviceJSON)
	if err != nil {
		return model.Event{}, nil, fmt.Errorf("--device: %w", err)
	}
	deviceObj, err := value.ObjectFromAny(deviceProps)
	if err != nil {
		return model.Event{}, nil, fmt.Errorf("--device: %w", err)
	}

	event := model.Event{Name: eventName, Properties: eventProps, Timestamp: time.Now()}
	return event, deviceObj, nil
}
