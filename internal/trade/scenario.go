package trade

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrExpectationFailed is returned when a step's outcome does not match its
// expect_error field.
var ErrExpectationFailed = errors.New("trade: scenario expectation failed")

// Scenario is a scripted list of commands, loaded from YAML:
//
//	continue_on_error: false
//	steps:
//	  - run: deposit 1000
//	  - run: buy XYZ 1
//	    expect_error: unknown_symbol
type Scenario struct {
	ContinueOnError bool   `yaml:"continue_on_error"`
	Steps           []Step `yaml:"steps"`
}

// Step is one command. ExpectError, when set, is the Reason label the
// command must fail with ("any" accepts every failure).
type Step struct {
	Run         string `yaml:"run"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// StepResult records how one step went.
type StepResult struct {
	Run    string `json:"run"`
	Reply  *Reply `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
	OK     bool   `json:"ok"`
}

// ScenarioResult summarizes a run.
type ScenarioResult struct {
	Steps  []StepResult `json:"steps"`
	Failed int          `json:"failed"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes YAML scenario data.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	for i, st := range sc.Steps {
		if strings.TrimSpace(st.Run) == "" {
			return nil, fmt.Errorf("step %d: run is empty", i+1)
		}
	}
	return &sc, nil
}

// RunScenario executes every step in order, echoing each command and its
// reply to w (nil w discards output). It stops at the first failed step
// unless ContinueOnError is set; the returned error names the first failure.
func (s *Service) RunScenario(sc *Scenario, w io.Writer) (ScenarioResult, error) {
	if w == nil {
		w = io.Discard
	}
	var (
		res      ScenarioResult
		firstErr error
	)
	for i, st := range sc.Steps {
		fmt.Fprintf(w, "> %s\n", st.Run)
		reply, err := s.Exec(st.Run)

		sr := StepResult{Run: st.Run}
		if err == nil {
			sr.Reply = &reply
		} else {
			sr.Error = err.Error()
			sr.Reason = Reason(err)
		}

		stepErr := checkExpectation(st, err)
		sr.OK = stepErr == nil
		switch {
		case stepErr != nil:
			fmt.Fprintf(w, "! %v\n", stepErr)
		case err != nil:
			fmt.Fprintf(w, "! %v (expected)\n", err)
		default:
			fmt.Fprintln(w, reply.Message)
		}
		res.Steps = append(res.Steps, sr)

		if stepErr == nil {
			continue
		}
		res.Failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("step %d (%q): %w", i+1, st.Run, stepErr)
		}
		if !sc.ContinueOnError {
			break
		}
	}
	s.logger.Info("scenario finished", "steps", len(res.Steps), "failed", res.Failed)
	return res, firstErr
}

func checkExpectation(st Step, err error) error {
	want := strings.TrimSpace(st.ExpectError)
	switch {
	case want == "" && err != nil:
		return err
	case want == "":
		return nil
	case err == nil:
		return fmt.Errorf("%w: succeeded, want error %q", ErrExpectationFailed, want)
	case want == "any" || want == Reason(err):
		return nil
	default:
		return fmt.Errorf("%w: got %s (%v), want %q", ErrExpectationFailed, Reason(err), err, want)
	}
}
