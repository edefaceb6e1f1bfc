package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"qte/internal/domain"
)

// QUnitParser decodes QUnit callback details
type QUnitParser struct{}

// NewQUnitParser creates a new QUnitParser
func NewQUnitParser() *QUnitParser {
	return &QUnitParser{}
}

// logPayload keeps actual and expected raw so any JSON value can be rendered
type logPayload struct {
	Module   string          `json:"module"`
	Name     string          `json:"name"`
	TestID   string          `json:"testId"`
	Result   bool            `json:"result"`
	Message  string          `json:"message"`
	Source   string          `json:"source"`
	Actual   json.RawMessage `json:"actual"`
	Expected json.RawMessage `json:"expected"`
}

// ParseEvent decodes the payload of one stage. Unknown fields are ignored.
// Any decoding failure wraps domain.ErrBridgeDeserialization.
func (p *QUnitParser) ParseEvent(stage domain.Stage, raw []byte) (domain.Event, error) {
	var (
		ev  domain.Event
		err error
	)

	switch stage {
	case domain.StageBegin:
		var v domain.Begin
		err = decode(raw, &v)
		ev = v
	case domain.StageModuleStart:
		var v domain.ModuleStart
		err = decode(raw, &v)
		ev = v
	case domain.StageTestStart:
		var v domain.TestStart
		err = decode(raw, &v)
		ev = v
	case domain.StageLog:
		var v logPayload
		err = decode(raw, &v)
		ev = domain.Log{
			Module:   v.Module,
			Name:     v.Name,
			TestID:   v.TestID,
			Result:   v.Result,
			Message:  v.Message,
			Source:   v.Source,
			Actual:   Value(v.Actual),
			Expected: Value(v.Expected),
		}
	case domain.StageTestDone:
		var v domain.TestDone
		err = decode(raw, &v)
		ev = v
	case domain.StageModuleDone:
		var v domain.ModuleDone
		err = decode(raw, &v)
		ev = v
	case domain.StageDone:
		var v domain.Done
		err = decode(raw, &v)
		ev = v
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrBridgeDeserialization, stage)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBridgeDeserialization, stage, err)
	}
	return ev, nil
}

func decode(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("payload is not an object")
	}
	return json.Unmarshal(raw, v)
}

// Value renders an assertion value for display. Strings are unquoted, other
// values become compact JSON. Missing and null values yield nil.
func Value(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return &s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		s = string(raw)
		return &s
	}
	s = buf.String()
	return &s
}
