// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

// Releasable defines anything holding native handles that can be freed.
type Releasable interface {

	// Release frees the native handles. Calling it again does nothing.
	Release()
}

// releaser runs release functions in reverse order of push, each at
// most once.
type releaser struct {
	fns []func()
}

func (r *releaser) push(fn func()) {
	r.fns = append(r.fns, fn)
}

// adopt moves everything pushed onto other to the top of r
func (r *releaser) adopt(other *releaser) {
	r.fns = append(r.fns, other.fns...)
	other.fns = nil
}

func (r *releaser) Release() {
	for len(r.fns) > 0 {
		last := len(r.fns) - 1
		fn := r.fns[last]
		r.fns = r.fns[:last]
		fn()
	}
}
