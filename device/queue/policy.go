// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

// Pair records that a family can serve an operation
type Pair struct {
	Operation Operation
	Family    uint32
}

// Feasibility is everything a mapping policy gets to decide on.
// Pairs are ordered by family index, then by operation.
type Feasibility struct {
	Pairs []Pair

	// Capacity holds the QueueCount reported for each family
	Capacity map[uint32]uint32
}

// Families returns the families able to serve op, in order.
func (f Feasibility) Families(op Operation) []uint32 {
	var out []uint32
	for _, p := range f.Pairs {
		if p.Operation == op {
			out = append(out, p.Family)
		}
	}
	return out
}

// FirstEligible assigns every operation to the first family able to
// serve it, in a single pass over the pairs. When a family has no
// capacity left the operation shares the family's last requested queue.
func FirstEligible(f Feasibility) (*Selections, error) {
	s := NewSelections()
	for _, p := range f.Pairs {
		if _, ok := s.Handle(p.Operation); ok {
			continue
		}

		if capacity, ok := f.Capacity[p.Family]; ok {
			if fam, ok := s.Family(p.Family); ok && fam.Count >= capacity {
				if err := s.Alias(p.Operation, FamilyHandle{Family: p.Family, Offset: fam.Count - 1}); err != nil {
					return nil, err
				}
				continue
			}
		}

		if _, err := s.InsertOperation(p.Operation, p.Family); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dedicated prefers a family that serves op and as few other operations
// as possible, falling back to sharing like FirstEligible.
func Dedicated(f Feasibility) (*Selections, error) {
	served := make(map[uint32]int)
	for _, p := range f.Pairs {
		served[p.Family]++
	}

	var ordered []Pair
	for _, op := range Operations() {
		families := f.Families(op)
		best := -1
		for i, fam := range families {
			if best < 0 || served[fam] < served[families[best]] {
				best = i
			}
		}
		if best >= 0 {
			ordered = append(ordered, Pair{Operation: op, Family: families[best]})
		}
	}
	return FirstEligible(Feasibility{Pairs: ordered, Capacity: f.Capacity})
}
