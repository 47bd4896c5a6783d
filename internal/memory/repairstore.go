package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/angeloszaimis/cognitive-core/internal/repair"
)

const (
	typeCase    = "diagnostic_case"
	typeOutcome = "repair_outcome"
	typePattern = "repair_pattern"
)

// RepairStore layers the repair ontology over a generic Store. It
// persists diagnostic cases and outcomes, and maintains learned
// success-rate patterns per (board, fault, action) combination.
type RepairStore struct {
	store  Store
	logger *slog.Logger
}

// NewRepairStore wraps store with the repair vocabulary.
func NewRepairStore(store Store, logger *slog.Logger) *RepairStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepairStore{store: store, logger: logger}
}

// SaveCase persists a diagnostic case, tagged by board and suspected
// faults so similar cases can be found later.
func (r *RepairStore) SaveCase(ctx context.Context, c *repair.DiagnosticCase) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("repair store: case without id")
	}

	value, err := encodeValue(c)
	if err != nil {
		return fmt.Errorf("encoding case: %w", err)
	}

	tags := []string{"board:" + string(c.Board)}
	for _, f := range c.SuspectedFaults {
		tags = append(tags, "fault:"+string(f.Fault))
	}
	return r.store.Save(ctx, "case:"+c.ID, value, tags, typeCase)
}

// GetCase loads a diagnostic case by id.
func (r *RepairStore) GetCase(ctx context.Context, id string) (*repair.DiagnosticCase, error) {
	e, err := r.store.Get(ctx, "case:"+id)
	if err != nil {
		return nil, err
	}

	var c repair.DiagnosticCase
	if err := decodeValue(e.Value, &c); err != nil {
		return nil, fmt.Errorf("decoding case %s: %w", id, err)
	}
	return &c, nil
}

// FindSimilarCases returns stored cases for the same board that
// implicate the same fault, newest first.
func (r *RepairStore) FindSimilarCases(ctx context.Context, board repair.BoardType, fault repair.FaultType, limit int) ([]*repair.DiagnosticCase, error) {
	entries, err := r.store.Search(ctx, Query{
		Tags:  []string{"board:" + string(board), "fault:" + string(fault)},
		Type:  typeCase,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	cases := make([]*repair.DiagnosticCase, 0, len(entries))
	for _, e := range entries {
		var c repair.DiagnosticCase
		if err := decodeValue(e.Value, &c); err != nil {
			r.logger.Warn("skipping undecodable case", "key", e.Key, "error", err)
			continue
		}
		cases = append(cases, &c)
	}
	return cases, nil
}

// SaveOutcome persists a repair outcome and folds it into the learned
// pattern for its (board, fault, action) combination.
func (r *RepairStore) SaveOutcome(ctx context.Context, o *repair.Outcome) error {
	if o == nil || o.CaseID == "" {
		return fmt.Errorf("repair store: outcome without case id")
	}

	value, err := encodeValue(o)
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}

	key := fmt.Sprintf("outcome:%s:%s", o.CaseID, uuid.NewString())
	tags := []string{
		"board:" + string(o.Board),
		"fault:" + string(o.Fault),
		"action:" + string(o.Action),
	}
	if err := r.store.Save(ctx, key, value, tags, typeOutcome); err != nil {
		return err
	}

	return r.learn(ctx, o)
}

// learn upserts the pattern for the outcome's combination, folding the
// outcome score into the running success rate.
func (r *RepairStore) learn(ctx context.Context, o *repair.Outcome) error {
	key := repair.PatternKey(o.Board, o.Fault, o.Action)

	pattern := &repair.Pattern{Board: o.Board, Fault: o.Fault, Action: o.Action}
	if e, err := r.store.Get(ctx, key); err == nil {
		if err := decodeValue(e.Value, pattern); err != nil {
			return fmt.Errorf("decoding pattern %s: %w", key, err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	pattern.Observe(o.Status.Score())

	value, err := encodeValue(pattern)
	if err != nil {
		return fmt.Errorf("encoding pattern: %w", err)
	}
	tags := []string{
		"board:" + string(o.Board),
		"fault:" + string(o.Fault),
		"action:" + string(o.Action),
	}
	if err := r.store.Save(ctx, key, value, tags, typePattern); err != nil {
		return err
	}

	r.logger.Debug("pattern updated",
		"board", o.Board,
		"fault", o.Fault,
		"action", o.Action,
		"success_rate", pattern.SuccessRate,
		"samples", pattern.SampleSize,
	)
	return nil
}

// BestAction returns the learned pattern with the highest success rate
// for a (board, fault) pair, or nil when nothing has been learned yet.
func (r *RepairStore) BestAction(ctx context.Context, board repair.BoardType, fault repair.FaultType) (*repair.Pattern, error) {
	patterns, err := r.patterns(ctx, Query{
		Tags: []string{"board:" + string(board), "fault:" + string(fault)},
		Type: typePattern,
	})
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.SuccessRate > best.SuccessRate {
			best = p
		}
	}
	return best, nil
}

// Patterns returns every learned pattern for a board, highest success
// rate first.
func (r *RepairStore) Patterns(ctx context.Context, board repair.BoardType) ([]*repair.Pattern, error) {
	patterns, err := r.patterns(ctx, Query{
		Tags: []string{"board:" + string(board)},
		Type: typePattern,
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].SuccessRate == patterns[j].SuccessRate {
			return patterns[i].SampleSize > patterns[j].SampleSize
		}
		return patterns[i].SuccessRate > patterns[j].SuccessRate
	})
	return patterns, nil
}

func (r *RepairStore) patterns(ctx context.Context, q Query) ([]*repair.Pattern, error) {
	entries, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	patterns := make([]*repair.Pattern, 0, len(entries))
	for _, e := range entries {
		var p repair.Pattern
		if err := decodeValue(e.Value, &p); err != nil {
			r.logger.Warn("skipping undecodable pattern", "key", e.Key, "error", err)
			continue
		}
		patterns = append(patterns, &p)
	}
	return patterns, nil
}

func encodeValue(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeValue(m map[string]any, out any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
