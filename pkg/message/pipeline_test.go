package message

import (
	"errors"
	"testing"

	"github.com/frost-protocol/frost/pkg/extension"
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

type stageRule struct {
	id       string
	pass     bool
	severity Severity
}

func (r stageRule) RuleID() string      { return r.id }
func (r stageRule) Description() string { return "stub rule " + r.id }
func (r stageRule) Severity() Severity  { return r.severity }
func (r stageRule) Validate(*frosttypes.FrostMessage) (bool, error) {
	return r.pass, nil
}

func TestPipeline_WarningDoesNotAbort(t *testing.T) {
	p := NewPipeline(extension.NoopHooks{})
	p.AddRule(StagePreValidation, stageRule{id: "warn", pass: false, severity: SeverityWarning})

	msg := &frosttypes.FrostMessage{Type: frosttypes.MessageTypeCustom}
	if err := p.Validate(msg); err != nil {
		t.Fatalf("expected a warning-severity failure to not abort validation, got %v", err)
	}
	if msg.Metadata.Metrics.ValidationAttempts != 1 {
		t.Fatalf("expected validation_attempts to be incremented")
	}
}

func TestPipeline_ErrorAborts(t *testing.T) {
	p := NewPipeline(extension.NoopHooks{})
	p.AddRule(StagePreValidation, stageRule{id: "fail", pass: false, severity: SeverityError})
	p.AddRule(StageProofValidation, stageRule{id: "never-reached", pass: false, severity: SeverityCritical})

	msg := &frosttypes.FrostMessage{Type: frosttypes.MessageTypeCustom}
	err := p.Validate(msg)
	if err == nil {
		t.Fatal("expected an error-severity failure to abort validation")
	}
	var msgErr *Error
	if !errors.As(err, &msgErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if msgErr.Stage != StagePreValidation {
		t.Fatalf("expected the failure to be attributed to pre_validation, got %s", msgErr.Stage)
	}
}

type rejectHooks struct {
	extension.NoopHooks
}

func (rejectHooks) ValidateProof(*frosttypes.FrostMessage) error {
	return errors.New("rejected by extension")
}

func TestPipeline_ExtensionHookCanFailStage(t *testing.T) {
	p := NewPipeline(rejectHooks{})
	msg := &frosttypes.FrostMessage{Type: frosttypes.MessageTypeCustom}
	err := p.Validate(msg)
	if err == nil {
		t.Fatal("expected extension hook rejection to fail validation")
	}
}

func TestPipeline_ValidateBatchOrderedStopsAtFirstFailure(t *testing.T) {
	p := NewPipeline(extension.NoopHooks{})
	p.AddRule(StagePreValidation, stageRule{id: "always-fail", pass: false, severity: SeverityError})

	batch := &frosttypes.BatchMessage{
		BatchID:         "b1",
		Ordered:         true,
		MinSuccessRatio: 0,
		Messages: []frosttypes.FrostMessage{
			{Type: frosttypes.MessageTypeCustom},
			{Type: frosttypes.MessageTypeCustom},
			{Type: frosttypes.MessageTypeCustom},
		},
	}

	results, _ := p.ValidateBatch(batch)
	if len(results) != 1 {
		t.Fatalf("expected ordered batch to stop after the first failure, got %d results", len(results))
	}
}

func TestPipeline_ValidateBatchFailsBelowMinSuccessRatio(t *testing.T) {
	p := NewPipeline(extension.NoopHooks{})
	p.AddRule(StagePreValidation, stageRule{id: "always-fail", pass: false, severity: SeverityError})

	batch := &frosttypes.BatchMessage{
		BatchID:         "b1",
		Ordered:         false,
		MinSuccessRatio: 0.5,
		Messages: []frosttypes.FrostMessage{
			{Type: frosttypes.MessageTypeCustom},
			{Type: frosttypes.MessageTypeCustom},
		},
	}

	_, err := p.ValidateBatch(batch)
	var msgErr *Error
	if !errors.As(err, &msgErr) || msgErr.Kind != KindBatchValidationFailed {
		t.Fatalf("expected KindBatchValidationFailed, got %v", err)
	}
}
