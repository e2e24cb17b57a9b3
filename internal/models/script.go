package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// StepKind identifies what a script step does.
type StepKind string

const (
	// StepExpect waits until the step's text appears in the child's output.
	StepExpect StepKind = "expect"
	// StepSend writes the step's text to the child's input.
	StepSend StepKind = "send"
)

// DefaultStepTimeout bounds an expect step that carries no timeout of its own.
const DefaultStepTimeout = 10 * time.Second

// DefaultSessionTimeout bounds the wait for process exit after the last step.
const DefaultSessionTimeout = 30 * time.Second

// Step is one entry in a script: either an expected prompt or an input to send.
type Step struct {
	Kind      StepKind       `yaml:"kind" json:"kind"`
	Text      string         `yaml:"text" json:"text"`
	TimeoutMs int            `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	Options   map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// ExpectOptions are the decoded options for an expect step.
type ExpectOptions struct {
	// Wildcard enables '*' as an any-bytes wildcard in the step text.
	Wildcard bool `mapstructure:"wildcard"`
}

// SendOptions are the decoded options for a send step.
type SendOptions struct {
	// Raw suppresses the trailing newline normally appended to sent text.
	Raw bool `mapstructure:"raw"`
}

// decodeOptions decodes an option map strictly: unknown keys are an error, so
// a misspelled option fails at load time instead of silently changing behavior.
func decodeOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// ExpectOptions decodes the step's option map for an expect step.
func (s *Step) ExpectOptions() (ExpectOptions, error) {
	var opts ExpectOptions
	if err := decodeOptions(s.Options, &opts); err != nil {
		return ExpectOptions{}, fmt.Errorf("decoding expect options: %w", err)
	}
	return opts, nil
}

// SendOptions decodes the step's option map for a send step.
func (s *Step) SendOptions() (SendOptions, error) {
	var opts SendOptions
	if err := decodeOptions(s.Options, &opts); err != nil {
		return SendOptions{}, fmt.Errorf("decoding send options: %w", err)
	}
	return opts, nil
}

// Payload returns the bytes a send step writes to the child's input.
func (s *Step) Payload() ([]byte, error) {
	opts, err := s.SendOptions()
	if err != nil {
		return nil, err
	}
	if opts.Raw {
		return []byte(s.Text), nil
	}
	return []byte(s.Text + "\n"), nil
}

// Timeout returns the step's timeout, falling back to the script default.
func (s *Step) Timeout(fallback time.Duration) time.Duration {
	if s.TimeoutMs > 0 {
		return time.Duration(s.TimeoutMs) * time.Millisecond
	}
	return fallback
}

// ScriptConfig controls session-level behavior.
type ScriptConfig struct {
	// StepTimeoutMs is the default timeout for expect steps without one.
	StepTimeoutMs int `yaml:"step_timeout_ms,omitempty" json:"step_timeout_ms,omitempty"`
	// SessionTimeoutMs bounds the wait for process exit after the last step.
	SessionTimeoutMs int `yaml:"session_timeout_ms,omitempty" json:"session_timeout_ms,omitempty"`
}

// Script is an ordered sequence of expect/send steps describing one
// conversation with a target program.
type Script struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Config      ScriptConfig `yaml:"config,omitempty" json:"config,omitempty"`
	Steps       []Step       `yaml:"steps" json:"steps"`
}

// StepTimeout returns the script's default expect-step timeout.
func (s *Script) StepTimeout() time.Duration {
	if s.Config.StepTimeoutMs > 0 {
		return time.Duration(s.Config.StepTimeoutMs) * time.Millisecond
	}
	return DefaultStepTimeout
}

// SessionTimeout returns the bound on the post-script wait for process exit.
func (s *Script) SessionTimeout() time.Duration {
	if s.Config.SessionTimeoutMs > 0 {
		return time.Duration(s.Config.SessionTimeoutMs) * time.Millisecond
	}
	return DefaultSessionTimeout
}

// Responses returns the payloads of all send steps, in script order.
func (s *Script) Responses() ([][]byte, error) {
	var out [][]byte
	for i := range s.Steps {
		if s.Steps[i].Kind != StepSend {
			continue
		}
		p, err := s.Steps[i].Payload()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Validate checks structural well-formedness. Consecutive steps of the same
// kind are deliberately permitted: output arrives in arbitrary chunks, so
// matching is cumulative rather than per-chunk.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("script name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("script %q has no steps", s.Name)
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		switch step.Kind {
		case StepExpect, StepSend:
		default:
			return fmt.Errorf("step %d: unknown kind %q", i, step.Kind)
		}
		if step.Text == "" {
			return fmt.Errorf("step %d: text is required", i)
		}
		if step.TimeoutMs < 0 {
			return fmt.Errorf("step %d: negative timeout", i)
		}
		// Surface bad option maps at load time rather than mid-session.
		if step.Kind == StepExpect {
			opts, err := step.ExpectOptions()
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if opts.Wildcard && strings.Trim(step.Text, "*") == "" {
				return fmt.Errorf("step %d: wildcard pattern needs at least one literal segment", i)
			}
		} else if _, err := step.SendOptions(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	if s.Config.StepTimeoutMs < 0 || s.Config.SessionTimeoutMs < 0 {
		return fmt.Errorf("script %q: negative timeout in config", s.Name)
	}
	return nil
}

// LoadScript loads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript parses a script from YAML bytes and validates it.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}
