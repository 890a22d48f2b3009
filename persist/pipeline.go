// Package persist provides the generic deserialize → map → persist pipeline
// shared by the downstream store managers.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
)

// ErrorKind classifies a pipeline outcome for retry purposes.
type ErrorKind int

const (
	// ErrorKindNone marks a successful run.
	ErrorKindNone ErrorKind = iota
	// ErrorKindLikelyRecoverable marks an outcome worth a delay-then-retry.
	ErrorKindLikelyRecoverable
	// ErrorKindNotRecoverable marks a terminal failure; retrying cannot help.
	ErrorKindNotRecoverable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "None"
	case ErrorKindLikelyRecoverable:
		return "LikelyRecoverable"
	case ErrorKindNotRecoverable:
		return "NotRecoverable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Result is the terminal outcome of one pipeline run. The pipeline never
// panics or returns an error; failures are carried here as a kind tag and a
// human-readable message.
type Result struct {
	Kind    ErrorKind
	Message string
}

// OK reports whether the run persisted its document.
func (r Result) OK() bool { return r.Kind == ErrorKindNone }

// Config controls the retry policy. Negative values clamp to zero.
type Config struct {
	Retries int
	Delay   time.Duration
}

// Pipeline deserializes a raw payload into P, maps it to the target document
// D and persists it. Only outcomes classified LikelyRecoverable are retried;
// every explicit failure path (deserialize error, nil payload, map error,
// nil document, persist error) is classified NotRecoverable and returns
// immediately, so in practice the loop runs at most once.
type Pipeline[P any, D any] struct {
	cfg       Config
	decode    func(string) (*P, error)
	mapFn     func(*P) (*D, error)
	persistFn func(context.Context, *D) error
}

// NewPipeline creates a pipeline from its three stages. All stages are
// required.
func NewPipeline[P any, D any](cfg Config, decode func(string) (*P, error), mapFn func(*P) (*D, error), persistFn func(context.Context, *D) error) (*Pipeline[P, D], error) {
	if decode == nil {
		return nil, errors.New("persist: pipeline requires a decode stage")
	}
	if mapFn == nil {
		return nil, errors.New("persist: pipeline requires a map stage")
	}
	if persistFn == nil {
		return nil, errors.New("persist: pipeline requires a persist stage")
	}

	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Pipeline[P, D]{
		cfg:       cfg,
		decode:    decode,
		mapFn:     mapFn,
		persistFn: persistFn,
	}, nil
}

// Run executes the pipeline against one raw payload.
func (p *Pipeline[P, D]) Run(ctx context.Context, raw string) Result {
	attempt := 0
	for {
		res := p.runOnce(ctx, raw)
		if res.Kind != ErrorKindLikelyRecoverable || attempt >= p.cfg.Retries {
			return res
		}

		attempt++
		telemetry.PersistRetriesTotal.Inc()
		log.Warn().
			Int("attempt", attempt).
			Str("message", res.Message).
			Msg("Retrying persistence pipeline")

		select {
		case <-ctx.Done():
			return Result{Kind: ErrorKindNotRecoverable, Message: fmt.Sprintf("canceled during retry: %v", ctx.Err())}
		case <-time.After(p.cfg.Delay):
		}
	}
}

func (p *Pipeline[P, D]) runOnce(ctx context.Context, raw string) Result {
	payload, err := p.decode(raw)
	if err != nil {
		return Result{Kind: ErrorKindNotRecoverable, Message: fmt.Sprintf("deserialize: %v", err)}
	}
	if payload == nil {
		return Result{Kind: ErrorKindNotRecoverable, Message: "deserialize: payload is nil"}
	}

	doc, err := p.mapFn(payload)
	if err != nil {
		return Result{Kind: ErrorKindNotRecoverable, Message: fmt.Sprintf("map: %v", err)}
	}
	if doc == nil {
		return Result{Kind: ErrorKindNotRecoverable, Message: "map: document is nil"}
	}

	if err := p.persistFn(ctx, doc); err != nil {
		return Result{Kind: ErrorKindNotRecoverable, Message: fmt.Sprintf("persist: %v", err)}
	}

	return Result{Kind: ErrorKindNone}
}
