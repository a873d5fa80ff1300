// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue_test

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkctx/device/queue"
)

func TestInsertOperationNewFamily(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()

	h, err := s.InsertOperation(queue.Graphics, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, queue.FamilyHandle{Family: 2, Offset: 0})

	f, ok := s.Family(2)
	c.Assert(ok, qt.IsTrue)
	c.Assert(f.Count, qt.Equals, uint32(1))
	c.Assert(f.Priorities, qt.DeepEquals, []float32{1.0})
}

func TestInsertOperationSameFamily(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()

	_, err := s.InsertOperation(queue.Graphics, 0)
	c.Assert(err, qt.IsNil)
	h, err := s.InsertOperation(queue.Present, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, queue.FamilyHandle{Family: 0, Offset: 1})

	f, _ := s.Family(0)
	c.Assert(f.Count, qt.Equals, uint32(2))
	c.Assert(f.Priorities, qt.DeepEquals, []float32{1.0, 1.0})
}

func TestInsertOperationTwice(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()

	_, err := s.InsertOperation(queue.Transfer, 1)
	c.Assert(err, qt.IsNil)
	_, err = s.InsertOperation(queue.Transfer, 3)

	var aerr *queue.AlreadyAssignedError
	c.Assert(errors.As(err, &aerr), qt.IsTrue)
	c.Assert(aerr.Operation, qt.Equals, queue.Transfer)
	c.Assert(aerr.Handle, qt.Equals, queue.FamilyHandle{Family: 1})

	// the failed insert must not have allocated anything
	_, ok := s.Family(3)
	c.Assert(ok, qt.IsFalse)
}

func TestInsertOperationInvalid(t *testing.T) {
	c := qt.New(t)
	_, err := queue.NewSelections().InsertOperation(queue.OperationCount, 0)
	c.Assert(err, qt.ErrorMatches, "invalid operation 4")
}

func TestInsertOperationNoCollisions(t *testing.T) {
	families := [][]uint32{
		{0, 0, 0, 0},
		{0, 1, 2, 3},
		{3, 0, 3, 0},
		{1, 1, 0, 1},
	}
	for _, fams := range families {
		c := qt.New(t)
		s := queue.NewSelections()
		seen := make(map[queue.FamilyHandle]queue.Operation)
		for i, op := range queue.Operations() {
			h, err := s.InsertOperation(op, fams[i])
			c.Assert(err, qt.IsNil)
			prev, dup := seen[h]
			c.Assert(dup, qt.IsFalse, qt.Commentf("%s collides with %s at %+v", op, prev, h))
			seen[h] = op
		}
		for _, op := range queue.Operations() {
			_, err := s.InsertOperation(op, 0)
			c.Assert(err, qt.IsNotNil)
		}
	}
}

func TestSelectionsZeroValue(t *testing.T) {
	c := qt.New(t)
	var s queue.Selections
	c.Assert(s.Empty(), qt.IsTrue)
	c.Assert(s.CreateInfos(), qt.HasLen, 0)
	c.Assert(s.Alias(queue.Present, queue.FamilyHandle{}), qt.ErrorMatches, `alias present: .*`)

	h, err := s.InsertOperation(queue.Graphics, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, queue.FamilyHandle{Family: 1, Offset: 0})
	c.Assert(s.Alias(queue.Present, h), qt.IsNil)
	c.Assert(s.CreateInfos(), qt.DeepEquals, []queue.CreateInfo{
		{FamilyIndex: 1, QueueCount: 1, Priorities: []float32{1.0}},
	})
}

func TestAlias(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()

	g, err := s.InsertOperation(queue.Graphics, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Alias(queue.Present, g), qt.IsNil)

	p, ok := s.Handle(queue.Present)
	c.Assert(ok, qt.IsTrue)
	c.Assert(p, qt.Equals, g)

	f, _ := s.Family(0)
	c.Assert(f.Count, qt.Equals, uint32(1))

	c.Assert(s.Alias(queue.Compute, queue.FamilyHandle{Family: 0, Offset: 1}), qt.ErrorMatches, `alias compute: .*`)
	c.Assert(s.Alias(queue.Present, g), qt.ErrorMatches, `operation present is already assigned .*`)
}

func TestCreateInfosAscending(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()

	for _, step := range []struct {
		op     queue.Operation
		family uint32
	}{
		{queue.Present, 5},
		{queue.Graphics, 2},
		{queue.Transfer, 5},
		{queue.Compute, 0},
	} {
		_, err := s.InsertOperation(step.op, step.family)
		c.Assert(err, qt.IsNil)
	}

	c.Assert(s.CreateInfos(), qt.DeepEquals, []queue.CreateInfo{
		{FamilyIndex: 0, QueueCount: 1, Priorities: []float32{1}},
		{FamilyIndex: 2, QueueCount: 1, Priorities: []float32{1}},
		{FamilyIndex: 5, QueueCount: 2, Priorities: []float32{1, 1}},
	})
}

func TestSelectionsQueries(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()
	c.Assert(s.Empty(), qt.IsTrue)
	c.Assert(s.CreateInfos(), qt.HasLen, 0)

	s.InsertOperation(queue.Graphics, 0)
	s.InsertOperation(queue.Present, 1)
	c.Assert(s.Empty(), qt.IsFalse)
	c.Assert(s.Assigned(), qt.DeepEquals, []queue.Operation{queue.Graphics, queue.Present})
	c.Assert(s.Covers(queue.Graphics, queue.Present), qt.IsTrue)
	c.Assert(s.Covers(queue.Graphics, queue.Compute), qt.IsFalse)
}

func TestSelectionsJSON(t *testing.T) {
	c := qt.New(t)
	s := queue.NewSelections()
	s.InsertOperation(queue.Graphics, 0)
	s.InsertOperation(queue.Present, 0)

	data, err := json.Marshal(s)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals,
		`{"families":[{"family":0,"count":2,"priorities":[1,1]}],`+
			`"operations":{"graphics":{"family":0,"offset":0},"present":{"family":0,"offset":1}}}`)
}

func TestOperationText(t *testing.T) {
	c := qt.New(t)
	var op queue.Operation
	c.Assert(op.UnmarshalText([]byte("transfer")), qt.IsNil)
	c.Assert(op, qt.Equals, queue.Transfer)
	c.Assert(op.UnmarshalText([]byte("video")), qt.IsNotNil)
	c.Assert(queue.Operation(9).String(), qt.Equals, "operation(9)")
}

func BenchmarkInsertOperation(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		s := queue.NewSelections()
		for _, op := range queue.Operations() {
			s.InsertOperation(op, uint32(op)%2)
		}
		s.CreateInfos()
	}
}
