package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marketap/marketap-sdk-go/internal/model"
)

// CampaignSummary is the per-campaign listing row.
type CampaignSummary struct {
	ID           string `json:"id"`
	EventName    string `json:"event_name"`
	LayoutType   string `json:"layout_type"`
	DelayMinutes int    `json:"delay_minutes,omitempty"`
	HasCap       bool   `json:"has_frequency_cap"`
}

// NewCampaignsCommand creates the campaigns command.
func NewCampaignsCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "List the campaigns targeting this project",
		Long: `Fetch and list the in-app message campaigns the server currently
targets at this project, as the SDK would see them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCampaigns(rootOpts, cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the freshness window")

	return cmd
}

func runCampaigns(opts *RootOptions, cmd *cobra.Command, force bool) error {
	formatter := newFormatter(opts, cmd)

	client, err := openClient(opts)
	if err != nil {
		return err
	}
	defer client.Close()

	campaigns := client.FetchCampaigns(force)
	formatter.VerboseLog("fetched %d campaign(s)", len(campaigns))

	if opts.Format == "json" {
		return formatter.Success(summarize(campaigns))
	}
	return formatter.Success(renderCampaignTable(campaigns))
}

func summarize(campaigns []model.Campaign) []CampaignSummary {
	out := make([]CampaignSummary, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, CampaignSummary{
			ID:           c.ID,
			EventName:    c.TriggerCondition.EventFilter.EventName,
			LayoutType:   c.Layout.LayoutType,
			DelayMinutes: c.TriggerCondition.DelayMinutes,
			HasCap:       c.TriggerCondition.FrequencyCap != nil,
		})
	}
	return out
}

func renderCampaignTable(campaigns []model.Campaign) string {
	if len(campaigns) == 0 {
		return "no campaigns"
	}
	var b strings.Builder
	for _, c := range campaigns {
		fmt.Fprintf(&b, "%s  on %q  layout=%s", c.ID,
			c.TriggerCondition.EventFilter.EventName, c.Layout.LayoutType)
		if c.TriggerCondition.DelayMinutes > 0 {
			fmt.Fprintf(&b, "  delay=%dm", c.TriggerCondition.DelayMinutes)
		}
		if fc := c.TriggerCondition.FrequencyCap; fc != nil {
			fmt.Fprintf(&b, "  cap=%d/%dm", fc.Limit, fc.DurationMinutes)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
