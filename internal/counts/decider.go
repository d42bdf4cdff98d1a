package counts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
)

// VariancePrompt carries what a reviewer needs to judge a strict-mode
// mismatch between the entered quantity and system stock.
type VariancePrompt struct {
	ItemCode   string          `json:"item_code"`
	SystemQty  decimal.Decimal `json:"system_qty"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// DuplicatePrompt lists the committed lines already present for the item so
// the counter can pick a target or start a fresh line.
type DuplicatePrompt struct {
	SessionID uuid.UUID      `json:"session_id"`
	ItemCode  string         `json:"item_code"`
	Lines     []CountLineDTO `json:"lines"`
}

// DuplicateResolution is the counter's answer to a DuplicatePrompt. LineID is
// required only for add_to_existing.
type DuplicateResolution struct {
	Decision enums.DuplicateDecision
	LineID   uuid.UUID
}

// Decider answers the two questions a submission can suspend on. The HTTP
// layer builds one per request from the submission body; a missing answer
// surfaces as a DECISION_REQUIRED error carrying the prompt, and the client
// re-submits with its choice.
type Decider interface {
	ConfirmVariance(ctx context.Context, prompt VariancePrompt) (enums.VarianceDecision, error)
	ResolveDuplicate(ctx context.Context, prompt DuplicatePrompt) (DuplicateResolution, error)
}

// RequestDecider resolves prompts from decisions already present in the
// submission request.
type RequestDecider struct {
	Variance     *enums.VarianceDecision
	Duplicate    *enums.DuplicateDecision
	TargetLineID *uuid.UUID
}

type decisionPromptDetails struct {
	Prompt    string           `json:"prompt"`
	Variance  *VariancePrompt  `json:"variance,omitempty"`
	Duplicate *DuplicatePrompt `json:"duplicate,omitempty"`
}

func (d RequestDecider) ConfirmVariance(ctx context.Context, prompt VariancePrompt) (enums.VarianceDecision, error) {
	if d.Variance == nil {
		// No decision on file reads as cancel; surfacing the prompt lets the
		// client ask before the cancel becomes final.
		return "", pkgerrors.New(pkgerrors.CodeDecision, "variance confirmation required").
			WithDetails(decisionPromptDetails{Prompt: "variance", Variance: &prompt})
	}
	if !d.Variance.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "variance decision must be cancel or confirm")
	}
	return *d.Variance, nil
}

func (d RequestDecider) ResolveDuplicate(ctx context.Context, prompt DuplicatePrompt) (DuplicateResolution, error) {
	if d.Duplicate == nil {
		return DuplicateResolution{}, pkgerrors.New(pkgerrors.CodeDecision, "duplicate resolution required").
			WithDetails(decisionPromptDetails{Prompt: "duplicate", Duplicate: &prompt})
	}
	if !d.Duplicate.IsValid() {
		return DuplicateResolution{}, pkgerrors.New(pkgerrors.CodeValidation, "duplicate decision must be cancel, add_to_existing, or create_new")
	}
	resolution := DuplicateResolution{Decision: *d.Duplicate}
	if *d.Duplicate == enums.DuplicateAddToExisting {
		if d.TargetLineID == nil || *d.TargetLineID == uuid.Nil {
			return DuplicateResolution{}, pkgerrors.New(pkgerrors.CodeValidation, "target line id required for add_to_existing")
		}
		resolution.LineID = *d.TargetLineID
	}
	return resolution, nil
}
