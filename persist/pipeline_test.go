package persist

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type samplePayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type sampleDoc struct {
	ID   int
	Name string
}

func decodeSample(raw string) (*samplePayload, error) {
	var p samplePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func mapSample(p *samplePayload) (*sampleDoc, error) {
	return &sampleDoc{ID: p.ID, Name: p.Name}, nil
}

func TestNewPipeline_RequiresStages(t *testing.T) {
	persist := func(context.Context, *sampleDoc) error { return nil }

	if _, err := NewPipeline[samplePayload, sampleDoc](Config{}, nil, mapSample, persist); err == nil {
		t.Error("expected error for nil decode stage")
	}
	if _, err := NewPipeline[samplePayload, sampleDoc](Config{}, decodeSample, nil, persist); err == nil {
		t.Error("expected error for nil map stage")
	}
	if _, err := NewPipeline(Config{}, decodeSample, mapSample, (func(context.Context, *sampleDoc) error)(nil)); err == nil {
		t.Error("expected error for nil persist stage")
	}
}

func TestNewPipeline_ClampsNegatives(t *testing.T) {
	p, err := NewPipeline(Config{Retries: -3, Delay: -time.Second}, decodeSample, mapSample,
		func(context.Context, *sampleDoc) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.cfg.Retries != 0 || p.cfg.Delay != 0 {
		t.Errorf("expected clamped config, got %+v", p.cfg)
	}
}

func TestRun_Success(t *testing.T) {
	var persisted *sampleDoc
	p, _ := NewPipeline(Config{}, decodeSample, mapSample, func(_ context.Context, d *sampleDoc) error {
		persisted = d
		return nil
	})

	res := p.Run(context.Background(), `{"id": 7, "name": "well-7"}`)
	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}
	if persisted == nil || persisted.ID != 7 || persisted.Name != "well-7" {
		t.Errorf("unexpected persisted document: %+v", persisted)
	}
}

func TestRun_FailurePaths(t *testing.T) {
	tests := []struct {
		name    string
		decode  func(string) (*samplePayload, error)
		mapFn   func(*samplePayload) (*sampleDoc, error)
		persist func(context.Context, *sampleDoc) error
		raw     string
		message string
	}{
		{
			name:    "deserialize error",
			decode:  decodeSample,
			mapFn:   mapSample,
			persist: func(context.Context, *sampleDoc) error { return nil },
			raw:     "{not json",
			message: "deserialize:",
		},
		{
			name:    "nil payload",
			decode:  func(string) (*samplePayload, error) { return nil, nil },
			mapFn:   mapSample,
			persist: func(context.Context, *sampleDoc) error { return nil },
			raw:     "{}",
			message: "payload is nil",
		},
		{
			name:    "map error",
			decode:  decodeSample,
			mapFn:   func(*samplePayload) (*sampleDoc, error) { return nil, errors.New("bad row") },
			persist: func(context.Context, *sampleDoc) error { return nil },
			raw:     "{}",
			message: "map:",
		},
		{
			name:    "nil document",
			decode:  decodeSample,
			mapFn:   func(*samplePayload) (*sampleDoc, error) { return nil, nil },
			persist: func(context.Context, *sampleDoc) error { return nil },
			raw:     "{}",
			message: "document is nil",
		},
		{
			name:    "persist error",
			decode:  decodeSample,
			mapFn:   mapSample,
			persist: func(context.Context, *sampleDoc) error { return errors.New("insert failed") },
			raw:     "{}",
			message: "persist:",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPipeline(Config{Retries: 5, Delay: time.Millisecond}, tc.decode, tc.mapFn, tc.persist)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			res := p.Run(context.Background(), tc.raw)
			if res.Kind != ErrorKindNotRecoverable {
				t.Errorf("expected NotRecoverable, got %v", res.Kind)
			}
			if !strings.Contains(res.Message, tc.message) {
				t.Errorf("expected message containing %q, got %q", tc.message, res.Message)
			}
		})
	}
}

// Every explicit failure is NotRecoverable, so even a generous retry budget
// must never re-run the persist stage.
func TestRun_NoRetryOnNotRecoverable(t *testing.T) {
	calls := 0
	p, _ := NewPipeline(Config{Retries: 3, Delay: time.Millisecond}, decodeSample, mapSample,
		func(context.Context, *sampleDoc) error {
			calls++
			return errors.New("insert failed")
		})

	res := p.Run(context.Background(), "{}")
	if res.OK() {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 persist attempt, got %d", calls)
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := map[ErrorKind]string{
		ErrorKindNone:              "None",
		ErrorKindLikelyRecoverable: "LikelyRecoverable",
		ErrorKindNotRecoverable:    "NotRecoverable",
	}
	for kind, want := range tests {
		if kind.String() != want {
			t.Errorf("expected %q, got %q", want, kind.String())
		}
	}
}
