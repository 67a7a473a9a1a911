package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a declarative conformance test: a named sequence of SDK
// operations executed against a fresh pipeline.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description"`

	// Steps is the operation sequence, executed in order.
	Steps []Step `yaml:"steps"`
}

// Step is a single operation in a scenario.
type Step struct {
	// Op selects the operation. See the Op* constants.
	Op string `yaml:"op"`

	// Event names the tracked event (op: track).
	Event string `yaml:"event,omitempty"`

	// Props are event or profile properties, depending on the op.
	Props map[string]any `yaml:"props,omitempty"`

	// UserID is the identity to assume (op: identify, login).
	UserID string `yaml:"user_id,omitempty"`

	// Token is the push token to register (op: set_push_token).
	Token string `yaml:"token,omitempty"`

	// Revenue is the purchase amount (op: purchase).
	Revenue float64 `yaml:"revenue,omitempty"`

	// Minutes moves the fake clock forward (op: advance).
	Minutes int `yaml:"minutes,omitempty"`

	// Mode switches the fake network (op: network): ok, reject, or down.
	Mode string `yaml:"mode,omitempty"`
}

// Step operations.
const (
	OpTrack        = "track"
	OpPageView     = "page_view"
	OpPurchase     = "purchase"
	OpIdentify     = "identify"
	OpLogin        = "login"
	OpLogout       = "logout"
	OpFlushUser    = "flush_user"
	OpSetPushToken = "set_push_token"
	OpUpdateDevice = "update_device"
	OpAdvance      = "advance"
	OpNetwork      = "network"
)

// Network modes.
const (
	ModeOK     = "ok"
	ModeReject = "reject"
	ModeDown   = "down"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping steps.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(st *Step) error {
	switch st.Op {
	case OpTrack:
		if st.Event == "" {
			return fmt.Errorf("track requires event")
		}
	case OpIdentify, OpLogin:
		if st.UserID == "" {
			return fmt.Errorf("%s requires user_id", st.Op)
		}
	case OpSetPushToken:
		if st.Token == "" {
			return fmt.Errorf("set_push_token requires token")
		}
	case OpAdvance:
		if st.Minutes == 0 {
			return fmt.Errorf("advance requires non-zero minutes")
		}
	case OpNetwork:
		switch st.Mode {
		case ModeOK, ModeReject, ModeDown:
		default:
			return fmt.Errorf("network requires mode ok, reject, or down")
		}
	case OpPageView, OpPurchase, OpLogout, OpFlushUser, OpUpdateDevice:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}
