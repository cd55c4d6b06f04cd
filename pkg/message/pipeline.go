package message

import (
	"time"

	"github.com/frost-protocol/frost/pkg/extension"
	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/stateproof"
)

// Rule is a single named check within a validation stage, per
// original_source/src/message/validation.rs's ValidationRule trait.
type Rule interface {
	RuleID() string
	Description() string
	Validate(msg *frosttypes.FrostMessage) (bool, error)
	Severity() Severity
}

// ValidationFailure records one failed rule.
type ValidationFailure struct {
	RuleID   string
	Reason   string
	Severity Severity
}

// ValidationResult is one stage's outcome, per the original's
// ValidationResult struct.
type ValidationResult struct {
	Valid       bool
	RulesPassed []string
	RulesFailed []ValidationFailure
	Stage       Stage
	Duration    time.Duration
}

// ProofVerifier is the narrow surface pipeline.ValidateProof needs from
// pkg/stateproof.Registry.
type ProofVerifier interface {
	Verify(sp frosttypes.StateProof, ctx *stateproof.VerifyContext) (bool, error)
}

// StateVerifier is the narrow surface pipeline.ValidateState needs from
// a finality verifier, kept local for the same reason.
type StateVerifier interface {
	VerifyFinality(block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error)
}

// Pipeline runs FrostMessages through the four ordered stages of spec
// §4.4, invoking extension hooks immediately before each stage, per
// original_source/src/message/validation.rs's ValidationPipeline trait:
// "Run extension pre-validation hooks" ... "Run validation stages
// sequentially".
type Pipeline struct {
	rules map[Stage][]Rule
	hooks extension.Hooks

	proofVerifier ProofVerifier
	stateVerifier StateVerifier

	preTransforms  []Transformer
	postTransforms []Transformer

	now func() time.Time
}

// Transformer mutates a message before or after validation, per the
// original's TransformationPipeline trait. Returning modified=true
// signals the pipeline to re-derive any content-addressed fields.
type Transformer interface {
	Transform(msg *frosttypes.FrostMessage) (modified bool, err error)
}

// NewPipeline constructs a Pipeline. hooks may be extension.NoopHooks{}
// when no extensions are registered.
func NewPipeline(hooks extension.Hooks) *Pipeline {
	return &Pipeline{
		rules: make(map[Stage][]Rule),
		hooks: hooks,
		now:   time.Now,
	}
}

// AddRule registers rule under stage.
func (p *Pipeline) AddRule(stage Stage, rule Rule) {
	p.rules[stage] = append(p.rules[stage], rule)
}

// SetStateVerifier wires a finality verifier into the state-validation
// stage. Messages without a FinalitySignal skip this check.
func (p *Pipeline) SetStateVerifier(v StateVerifier) {
	p.stateVerifier = v
}

// SetProofVerifier wires a pkg/stateproof.Registry into the
// proof-validation stage. Messages carrying no StateTransition/proof
// pair skip this check.
func (p *Pipeline) SetProofVerifier(v ProofVerifier) {
	p.proofVerifier = v
}

// AddPreTransform/AddPostTransform register transformers run in
// registration order, per the original's "Message modification" /
// "Chain handling" transformation features.
func (p *Pipeline) AddPreTransform(t Transformer)  { p.preTransforms = append(p.preTransforms, t) }
func (p *Pipeline) AddPostTransform(t Transformer) { p.postTransforms = append(p.postTransforms, t) }

// runRules evaluates every rule registered for stage against msg.
func (p *Pipeline) runRules(stage Stage, msg *frosttypes.FrostMessage) ValidationResult {
	start := p.now()
	result := ValidationResult{Valid: true, Stage: stage}

	for _, rule := range p.rules[stage] {
		ok, err := rule.Validate(msg)
		if err != nil {
			result.Valid = false
			result.RulesFailed = append(result.RulesFailed, ValidationFailure{
				RuleID: rule.RuleID(), Reason: err.Error(), Severity: rule.Severity(),
			})
			continue
		}
		if !ok {
			result.Valid = false
			result.RulesFailed = append(result.RulesFailed, ValidationFailure{
				RuleID: rule.RuleID(), Reason: rule.Description(), Severity: rule.Severity(),
			})
			continue
		}
		result.RulesPassed = append(result.RulesPassed, rule.RuleID())
	}

	result.Duration = p.now().Sub(start)
	return result
}

// processResult converts a failed ValidationResult into a pipeline
// *Error, applying spec §7's severity policy: Critical and Error
// failures abort the message; Warning failures are recorded but do not
// fail it, per original_source/src/message/validation.rs's comment that
// only the first failure surfaces but severity still gates abort vs.
// continue.
func processResult(result ValidationResult) error {
	if result.Valid || len(result.RulesFailed) == 0 {
		return nil
	}
	worst := result.RulesFailed[0]
	for _, f := range result.RulesFailed {
		if severityRank(f.Severity) > severityRank(worst.Severity) {
			worst = f
		}
	}
	if worst.Severity == SeverityWarning {
		return nil
	}
	e := validationFailed(result.Stage, worst.Reason)
	if worst.Severity == SeverityCritical {
		e.Severity = SeverityCritical
		e.Retry.Retryable = false
	}
	return e
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityError:
		return 1
	default:
		return 0
	}
}

// updateMetrics increments the message's validation-attempt counter, per
// the original's "Update validation attempts" step.
func updateMetrics(msg *frosttypes.FrostMessage) {
	if msg.Metadata.Metrics == nil {
		msg.Metadata.Metrics = &frosttypes.MessageMetrics{}
	}
	msg.Metadata.Metrics.ValidationAttempts++
}

// Validate runs the full four-stage pipeline against msg: extension
// pre_validate hook, PreValidation rules; extension validate_proof hook,
// ProofValidation rules; extension validate_state hook, StateValidation
// rules plus the optional finality check; extension post_validate hook,
// PostValidation rules. It returns the first stage's error, if any.
func (p *Pipeline) Validate(msg *frosttypes.FrostMessage) error {
	updateMetrics(msg)

	if err := p.hooks.PreValidate(msg); err != nil {
		return invalidFormat(err.Error())
	}
	if err := processResult(p.runRules(StagePreValidation, msg)); err != nil {
		return err
	}

	if err := p.hooks.ValidateProof(msg); err != nil {
		return proofVerificationFailed(err.Error())
	}
	if msg.StateTransition != nil && msg.ProofMetadata != nil && p.proofVerifier != nil {
		sp := frosttypes.StateProof{Transition: *msg.StateTransition, Proof: *msg.ProofMetadata}
		var ctx *stateproof.VerifyContext
		if msg.SourceChain != "" {
			chain := msg.SourceChain
			ctx = &stateproof.VerifyContext{ChainID: &chain}
		}
		valid, err := p.proofVerifier.Verify(sp, ctx)
		if err != nil {
			return proofVerificationFailed(err.Error())
		}
		if !valid {
			return proofVerificationFailed("state proof failed verification")
		}
	}
	if err := processResult(p.runRules(StageProofValidation, msg)); err != nil {
		return err
	}

	if err := p.hooks.ValidateState(msg); err != nil {
		return stateValidationFailed(err.Error())
	}
	if msg.FinalitySignal != nil && msg.BlockRef != nil && p.stateVerifier != nil {
		finalized, _, err := p.stateVerifier.VerifyFinality(*msg.BlockRef, *msg.FinalitySignal)
		if err != nil {
			return stateValidationFailed(err.Error())
		}
		if !finalized {
			return stateValidationFailed("block is not yet final under the source chain's rules")
		}
	}
	if err := processResult(p.runRules(StageStateValidation, msg)); err != nil {
		return err
	}

	if err := p.hooks.PostValidate(msg); err != nil {
		return validationFailed(StagePostValidation, err.Error())
	}
	if err := processResult(p.runRules(StagePostValidation, msg)); err != nil {
		return err
	}

	return nil
}

// ValidateBatch validates every message in batch in order, per the
// original's validate_batch: when batch.Ordered, processing stops at
// the first failure; success is judged against
// batch.MinSuccessRatio, failing with KindBatchValidationFailed if the
// realized ratio falls short.
func (p *Pipeline) ValidateBatch(batch *frosttypes.BatchMessage) ([]ValidationResult, error) {
	results := make([]ValidationResult, 0, len(batch.Messages))

	for i := range batch.Messages {
		msg := &batch.Messages[i]
		start := p.now()
		err := p.Validate(msg)
		duration := p.now().Sub(start)

		if err == nil {
			results = append(results, ValidationResult{Valid: true, Stage: StagePostValidation, Duration: duration})
			continue
		}
		results = append(results, ValidationResult{
			Valid: false,
			Stage: StagePostValidation,
			RulesFailed: []ValidationFailure{{
				RuleID: "batch_validation", Reason: err.Error(), Severity: SeverityError,
			}},
			Duration: duration,
		})
		if batch.Ordered {
			break
		}
	}

	successCount := 0
	for _, r := range results {
		if r.Valid {
			successCount++
		}
	}
	successRatio := float32(successCount) / float32(len(batch.Messages))
	if successRatio < batch.MinSuccessRatio {
		return results, batchValidationFailed(batch.BatchID, successRatio, batch.MinSuccessRatio)
	}
	return results, nil
}

// Transform applies every pre-transform, then every post-transform, in
// registration order, re-deriving nothing itself: callers whose
// transformer reports modified=true are responsible for re-hashing any
// content-addressed field the transform touched (e.g. StateTransition's
// Fingerprint), per spec §4.4's "re-hashing on modified=true" handling.
func (p *Pipeline) Transform(msg *frosttypes.FrostMessage, stage string) (modified bool, err error) {
	var chain []Transformer
	switch stage {
	case "pre":
		chain = p.preTransforms
	case "post":
		chain = p.postTransforms
	}
	for _, t := range chain {
		m, err := t.Transform(msg)
		if err != nil {
			return modified, err
		}
		modified = modified || m
	}
	return modified, nil
}
