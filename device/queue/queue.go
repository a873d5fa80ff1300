// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package queue maps logical operations to physical queue families and
// the queues requested from each family.
package queue

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
)

// Operation is a kind of work submitted to a queue
type Operation int

// Operations known to the selection model
const (
	Graphics Operation = iota
	Compute
	Transfer
	Present

	// OperationCount is the number of operations
	OperationCount
)

// DefaultPriority is given to every queue slot the model requests
const DefaultPriority float32 = 1.0

var operationNames = [OperationCount]string{"graphics", "compute", "transfer", "present"}

// Operations lists every operation in order.
func Operations() []Operation {
	return []Operation{Graphics, Compute, Transfer, Present}
}

// Valid reports whether o is one of the known operations
func (o Operation) Valid() bool {
	return o >= 0 && o < OperationCount
}

func (o Operation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("operation(%d)", int(o))
	}
	return operationNames[o]
}

// MarshalText implements encoding.TextMarshaler
func (o Operation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, errors.Newf("invalid operation %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Operation) UnmarshalText(text []byte) error {
	for i, name := range operationNames {
		if name == string(text) {
			*o = Operation(i)
			return nil
		}
	}
	return errors.Newf("unknown operation %q", text)
}

// Family is what gets requested from a single queue family
type Family struct {
	Count      uint32
	Priorities []float32
}

// FamilyHandle identifies one queue inside a family
type FamilyHandle struct {
	Family uint32 `json:"family"`
	Offset uint32 `json:"offset"`
}

// AlreadyAssignedError is returned when an operation is assigned twice
type AlreadyAssignedError struct {
	Operation Operation
	Handle    FamilyHandle
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("operation %s is already assigned to family %d offset %d",
		e.Operation, e.Handle.Family, e.Handle.Offset)
}

// CreateInfo describes the queues to create from one family
type CreateInfo struct {
	FamilyIndex uint32    `json:"family"`
	QueueCount  uint32    `json:"count"`
	Priorities  []float32 `json:"priorities"`
}

// Selections maps operations to queues and families to the number of
// queues requested from them. The zero value is an empty selection.
type Selections struct {
	families   map[uint32]*Family
	operations [OperationCount]*FamilyHandle
}

// NewSelections returns an empty selection
func NewSelections() *Selections {
	return &Selections{families: make(map[uint32]*Family)}
}

// InsertOperation assigns op to a new queue slot in family.
func (s *Selections) InsertOperation(op Operation, family uint32) (FamilyHandle, error) {
	if !op.Valid() {
		return FamilyHandle{}, errors.Newf("invalid operation %d", int(op))
	}
	if h := s.operations[op]; h != nil {
		return FamilyHandle{}, &AlreadyAssignedError{Operation: op, Handle: *h}
	}

	if s.families == nil {
		s.families = make(map[uint32]*Family)
	}
	f, ok := s.families[family]
	if !ok {
		f = &Family{}
		s.families[family] = f
	}
	h := FamilyHandle{Family: family, Offset: f.Count}
	f.Count++
	f.Priorities = append(f.Priorities, DefaultPriority)

	s.operations[op] = &h
	return h, nil
}

// Alias assigns op to a queue that is already requested, so that the
// operations share it.
func (s *Selections) Alias(op Operation, h FamilyHandle) error {
	if !op.Valid() {
		return errors.Newf("invalid operation %d", int(op))
	}
	if prev := s.operations[op]; prev != nil {
		return &AlreadyAssignedError{Operation: op, Handle: *prev}
	}
	f, ok := s.families[h.Family]
	if !ok || h.Offset >= f.Count {
		return errors.Newf("alias %s: family %d offset %d is not requested", op, h.Family, h.Offset)
	}
	s.operations[op] = &h
	return nil
}

// Handle returns the queue assigned to op.
func (s *Selections) Handle(op Operation) (FamilyHandle, bool) {
	if !op.Valid() || s.operations[op] == nil {
		return FamilyHandle{}, false
	}
	return *s.operations[op], true
}

// Family returns the allocation for a family index.
func (s *Selections) Family(index uint32) (Family, bool) {
	f, ok := s.families[index]
	if !ok {
		return Family{}, false
	}
	return Family{Count: f.Count, Priorities: append([]float32{}, f.Priorities...)}, true
}

// Assigned lists assigned operations in operation order.
func (s *Selections) Assigned() []Operation {
	var ops []Operation
	for _, op := range Operations() {
		if s.operations[op] != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// Covers reports whether every op in ops is assigned.
func (s *Selections) Covers(ops ...Operation) bool {
	for _, op := range ops {
		if _, ok := s.Handle(op); !ok {
			return false
		}
	}
	return true
}

// Empty reports whether no operation is assigned
func (s *Selections) Empty() bool {
	return len(s.Assigned()) == 0
}

// CreateInfos returns one entry per requested family in ascending
// family order.
func (s *Selections) CreateInfos() []CreateInfo {
	indices := make([]uint32, 0, len(s.families))
	for idx, f := range s.families {
		if f.Count > 0 {
			indices = append(indices, idx)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	infos := make([]CreateInfo, 0, len(indices))
	for _, idx := range indices {
		f := s.families[idx]
		infos = append(infos, CreateInfo{
			FamilyIndex: idx,
			QueueCount:  f.Count,
			Priorities:  append([]float32{}, f.Priorities...),
		})
	}
	return infos
}

// MarshalJSON reports the queue plan
func (s *Selections) MarshalJSON() ([]byte, error) {
	ops := make(map[Operation]FamilyHandle)
	for _, op := range s.Assigned() {
		ops[op] = *s.operations[op]
	}
	return json.Marshal(struct {
		Families   []CreateInfo               `json:"families"`
		Operations map[Operation]FamilyHandle `json:"operations"`
	}{s.CreateInfos(), ops})
}
