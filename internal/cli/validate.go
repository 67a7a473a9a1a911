package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/spf13/cobra"
)

//go:embed campaigns_schema.cue
var campaignSchema string

// Validation error codes.
const (
	ErrCodeLoad   = "E001" // file unreadable or not JSON
	ErrCodeSchema = "E002" // schema violation
)

// ValidationError is one schema violation in a campaign file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <campaigns-file>",
		Short: "Validate a campaign definition file",
		Long: `Validate a JSON campaign definition file against the campaign schema.

Checks operator and data-type names, required fields, and frequency-cap
bounds without contacting the server. Useful before uploading campaign
definitions or when debugging why a campaign never fires.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return NewExitError(ExitCommandError, "cannot read campaign file")
	}

	formatter.VerboseLog("validating %s (%d bytes)", path, len(data))

	validationErrors := validateCampaignJSON(path, data)
	if len(validationErrors) > 0 {
		if opts.Format == "json" {
			formatter.Success(ValidationResult{Valid: false, Errors: validationErrors})
		} else {
			for _, ve := range validationErrors {
				formatter.Error(ve.Code, ve.Message, nil)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(validationErrors)))
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success("valid")
}

// validateCampaignJSON unifies the file contents with the embedded schema
// and reports every violation, not just the first.
func validateCampaignJSON(path string, data []byte) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(campaignSchema, cue.Filename("campaigns_schema.cue"))
	campaignsDef := schema.LookupPath(cue.ParsePath("#Campaigns"))

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return []ValidationError{{Code: ErrCodeLoad, Message: err.Error()}}
	}

	unified := campaignsDef.Unify(ctx.BuildExpr(expr))
	verr := unified.Validate(cue.Concrete(true), cue.Final())
	if verr == nil {
		return nil
	}

	var out []ValidationError
	for _, e := range cueerrors.Errors(verr) {
		msg := e.Error()
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			msg = fmt.Sprintf("%s (%s)", msg, positions[0])
		}
		out = append(out, ValidationError{Code: ErrCodeSchema, Message: msg})
	}
	return out
}
