package search

import (
	"errors"
	"fmt"
	"sort"

	"github.com/2767mr/shapereach/internal/shape"
)

var ErrNotDiscovered = errors.New("shape not discovered")

const (
	tableSize = 1 << 16

	// BaseStep is the step count of the 15 single layer base shapes.
	BaseStep = 1
)

// Record is the discovery of one shape. Steps is zero for shapes that have
// not been found. A and B are the operands, B is only set for stacks where
// A was dropped onto B.
type Record struct {
	Steps uint32
	Op    Op
	A, B  shape.Code
}

func (r Record) Found() bool {
	return r.Steps != 0
}

// State is the table the engine fills in. Records are written once and
// never revised.
type State struct {
	RunID string
	Ops   OpSet

	records  [tableSize]Record
	count    int
	level    uint32
	complete bool
}

// NewState returns a state seeded with the base shapes 0x0001-0x000F.
func NewState() *State {
	s := &State{level: BaseStep}
	for id := shape.Code(0x0001); id <= 0x000F; id++ {
		s.records[id] = Record{Steps: BaseStep, Op: OpBase}
		s.count++
	}
	return s
}

func (s *State) Count() int {
	return s.count
}

// Level is the step of the current frontier. Once the search is complete it
// is the largest step any shape needs.
func (s *State) Level() uint32 {
	return s.level
}

func (s *State) Complete() bool {
	return s.complete
}

func (s *State) Record(id shape.Code) (Record, bool) {
	r := s.records[id]
	return r, id != shape.Empty && r.Found()
}

func (s *State) MinSteps(id shape.Code) (uint32, bool) {
	r, ok := s.Record(id)
	return r.Steps, ok
}

// discover writes the record unless the shape is already known.
func (s *State) discover(id shape.Code, r Record) bool {
	if id == shape.Empty || s.records[id].Found() {
		return false
	}
	s.records[id] = r
	s.count++
	return true
}

// Discovered lists every known shape in ascending order.
func (s *State) Discovered() []shape.Code {
	result := make([]shape.Code, 0, s.count)
	for id := 1; id < tableSize; id++ {
		if s.records[id].Found() {
			result = append(result, shape.Code(id))
		}
	}
	return result
}

// Frontier lists the shapes found at the current level in ascending order.
func (s *State) Frontier() []shape.Code {
	return s.AtStep(s.level)
}

func (s *State) AtStep(step uint32) []shape.Code {
	var result []shape.Code
	for id := 1; id < tableSize; id++ {
		if s.records[id].Steps == step {
			result = append(result, shape.Code(id))
		}
	}
	return result
}

// Histogram counts shapes per step. Index 0 is unused.
func (s *State) Histogram() []int {
	var result []int
	for id := 1; id < tableSize; id++ {
		steps := s.records[id].Steps
		if steps == 0 {
			continue
		}
		for uint32(len(result)) <= steps {
			result = append(result, 0)
		}
		result[steps]++
	}
	return result
}

// SymmetryClasses counts the known shapes that differ by more than a
// rotation or mirror.
func (s *State) SymmetryClasses() int {
	seen := make(map[shape.Code]struct{})
	for id := 1; id < tableSize; id++ {
		if s.records[id].Found() {
			seen[shape.Code(id).Minimal()] = struct{}{}
		}
	}
	return len(seen)
}

type Step struct {
	Result shape.Code
	Record
}

func (st Step) String() string {
	switch {
	case st.Op == OpBase:
		return fmt.Sprintf("%s = base", st.Result.Hex())
	case st.Op == OpStack:
		return fmt.Sprintf("%s = stack %s onto %s", st.Result.Hex(), st.A.Hex(), st.B.Hex())
	}
	return fmt.Sprintf("%s = %s %s", st.Result.Hex(), st.Op, st.A.Hex())
}

// Recipe walks the provenance of id back to base shapes. Every operand
// appears before the step that uses it and each shape appears once.
func (s *State) Recipe(id shape.Code) ([]Step, error) {
	if _, ok := s.Record(id); !ok {
		return nil, fmt.Errorf("recipe %s: %w", id.Hex(), ErrNotDiscovered)
	}

	var steps []Step
	done := make(map[shape.Code]bool)
	var visit func(shape.Code)
	visit = func(c shape.Code) {
		if done[c] {
			return
		}
		done[c] = true
		r := s.records[c]
		if r.Op != OpBase {
			visit(r.A)
			if r.Op == OpStack {
				visit(r.B)
			}
		}
		steps = append(steps, Step{Result: c, Record: r})
	}
	visit(id)
	return steps, nil
}

// SnapshotRecord is the persisted form of one discovery.
type SnapshotRecord struct {
	ID    uint16 `json:"id"`
	Steps uint32 `json:"steps"`
	Op    string `json:"op"`
	A     uint16 `json:"a,omitempty"`
	B     uint16 `json:"b,omitempty"`
}

// Snapshot is a state as of a completed level.
type Snapshot struct {
	RunID    string           `json:"run_id"`
	Ops      string           `json:"ops"`
	Level    uint32           `json:"level"`
	Complete bool             `json:"complete"`
	Records  []SnapshotRecord `json:"records"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:    s.RunID,
		Ops:      s.Ops.String(),
		Level:    s.level,
		Complete: s.complete,
		Records:  make([]SnapshotRecord, 0, s.count),
	}
	for id := 1; id < tableSize; id++ {
		r := s.records[id]
		if !r.Found() {
			continue
		}
		snap.Records = append(snap.Records, SnapshotRecord{
			ID:    uint16(id),
			Steps: r.Steps,
			Op:    r.Op.String(),
			A:     uint16(r.A),
			B:     uint16(r.B),
		})
	}
	return snap
}

// Restore rebuilds a state from a snapshot. Records above the snapshot
// level belong to an unfinished level and are rejected.
func Restore(snap Snapshot) (*State, error) {
	ops, err := ParseOpSet(snap.Ops)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	s := &State{
		RunID:    snap.RunID,
		Ops:      ops,
		level:    snap.Level,
		complete: snap.Complete,
	}
	if s.level < BaseStep {
		s.level = BaseStep
	}

	sort.Slice(snap.Records, func(i, j int) bool { return snap.Records[i].ID < snap.Records[j].ID })
	for _, rec := range snap.Records {
		if rec.ID == 0 || rec.Steps == 0 || rec.Steps > s.level {
			return nil, fmt.Errorf("restore snapshot: bad record %#04x at step %d of level %d", rec.ID, rec.Steps, s.level)
		}
		op := OpBase
		if rec.Op != OpBase.String() {
			if op, err = ParseOp(rec.Op); err != nil {
				return nil, fmt.Errorf("restore snapshot: %w", err)
			}
		}
		if !s.discover(shape.Code(rec.ID), Record{Steps: rec.Steps, Op: op, A: shape.Code(rec.A), B: shape.Code(rec.B)}) {
			return nil, fmt.Errorf("restore snapshot: duplicate record %#04x", rec.ID)
		}
	}
	return s, nil
}
