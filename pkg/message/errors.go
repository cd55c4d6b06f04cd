// Copyright 2025 Certen Protocol

// Package message implements FROST's message pipeline (C4): a four-stage
// validation pipeline (pre-validate, validate-proof, validate-state,
// post-validate), batch handling, and an optional transformation
// pipeline, per spec §4.4. Grounded on
// original_source/src/message/{validation,error,types}.rs.
package message

import (
	"fmt"
	"time"
)

// Severity mirrors spec §7's three-level severity taxonomy, reused here
// per original_source/src/message/error.rs's ErrorSeverity.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Stage names a pipeline stage, per spec §4.4.
type Stage string

const (
	StagePreValidation   Stage = "pre_validation"
	StageProofValidation Stage = "proof_validation"
	StageStateValidation Stage = "state_validation"
	StagePostValidation  Stage = "post_validation"
	StageTransformation  Stage = "transformation"
	StageHandling        Stage = "handling"
)

// RetryGuidance is attached to every Error, per spec §4.4/§7.
type RetryGuidance struct {
	Retryable    bool
	RetryAfter   time.Duration
	MaxRetries   uint32
	Alternatives []string
}

// Kind is the message error taxonomy of spec §4.4.
type Kind string

const (
	KindValidationFailed          Kind = "validation_failed"
	KindInvalidFormat             Kind = "invalid_format"
	KindTransformationFailed      Kind = "transformation_failed"
	KindHandlingFailed            Kind = "handling_failed"
	KindProofVerificationFailed   Kind = "proof_verification_failed"
	KindStateValidationFailed     Kind = "state_validation_failed"
	KindBatchValidationFailed     Kind = "batch_validation_failed"
	KindTimeout                   Kind = "timeout"
	KindChainSpecific             Kind = "chain_specific"
	KindInternal                  Kind = "internal"
)

// Error is the structured error type for pkg/message, grounded on
// original_source/src/message/error.rs's MessageError enum, carrying the
// same severity/stage/retry triple as pkg/stateproof.ProofError and
// pkg/finality's error type, per spec §7.
type Error struct {
	Kind     Kind
	Message  string
	Stage    Stage
	Severity Severity
	Retry    RetryGuidance

	BatchID        string
	SuccessRatio   float32
	RequiredRatio  float32
	RetryCount     uint32
	Timeout        time.Duration
	ChainID        string
	Cause          error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBatchValidationFailed:
		return fmt.Sprintf("batch validation failed: success ratio %.3f below required %.3f", e.SuccessRatio, e.RequiredRatio)
	case KindTimeout:
		return fmt.Sprintf("message timeout after %s (retry_count=%d)", e.Timeout, e.RetryCount)
	case KindChainSpecific:
		return fmt.Sprintf("chain-specific error: %s - %s", e.ChainID, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, stage Stage, severity Severity, msg string) *Error {
	return &Error{
		Kind:     kind,
		Message:  msg,
		Stage:    stage,
		Severity: severity,
		Retry:    RetryGuidance{Retryable: severity != SeverityCritical},
	}
}

func validationFailed(stage Stage, msg string) *Error {
	return newError(KindValidationFailed, stage, SeverityError, msg)
}

func invalidFormat(msg string) *Error {
	return newError(KindInvalidFormat, StagePreValidation, SeverityError, msg)
}

func proofVerificationFailed(msg string) *Error {
	return newError(KindProofVerificationFailed, StageProofValidation, SeverityCritical, msg)
}

func stateValidationFailed(msg string) *Error {
	return newError(KindStateValidationFailed, StageStateValidation, SeverityCritical, msg)
}

func batchValidationFailed(batchID string, successRatio, requiredRatio float32) *Error {
	e := newError(KindBatchValidationFailed, StagePostValidation, SeverityError, "success ratio below required")
	e.BatchID = batchID
	e.SuccessRatio = successRatio
	e.RequiredRatio = requiredRatio
	return e
}

// NewTimeout builds a Timeout error whose severity escalates to Critical
// once retryCount exceeds 3, per spec §4.4: "Timeout becomes Critical
// after retry_count > 3".
func NewTimeout(timeout time.Duration, retryCount uint32) *Error {
	severity := SeverityError
	if retryCount > 3 {
		severity = SeverityCritical
	}
	e := newError(KindTimeout, StageHandling, severity, "message timeout")
	e.Timeout = timeout
	e.RetryCount = retryCount
	return e
}
