// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/content-engine/pkg/types"

// resultCode classifies one candidate's trip through the stages.
type resultCode int

const (
	// codeOK: a draft was produced and fact-checked to a terminal status.
	codeOK resultCode = iota

	// codeSkip: generation failed for this candidate; the run continues.
	codeSkip

	// codeFatal: the run cannot continue (no provider, cancelled context).
	codeFatal
)

func (c resultCode) String() string {
	switch c {
	case codeOK:
		return "ok"
	case codeSkip:
		return "skip"
	case codeFatal:
		return "fatal"
	}
	return "unknown"
}

// result is the tagged outcome of processing one candidate.
type result struct {
	code  resultCode
	err   error        // skip or fatal cause
	draft *types.Draft // set when code == codeOK
}

func okResult(draft *types.Draft) result { return result{code: codeOK, draft: draft} }

func skipResult(err error) result { return result{code: codeSkip, err: err} }

func fatalResult(err error) result { return result{code: codeFatal, err: err} }
