// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profile

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packr"
)

// StaticProfiles holds the driver profiles shipped with the package
var StaticProfiles = packr.NewBox("./builtin")

const builtinSuffix = ".json"

// BuiltinNames lists the shipped profiles
func BuiltinNames() []string {
	var names []string
	for _, file := range StaticProfiles.List() {
		if strings.HasSuffix(file, builtinSuffix) {
			names = append(names, strings.TrimSuffix(file, builtinSuffix))
		}
	}
	sort.Strings(names)
	return names
}

// Builtin loads a shipped profile by name
func Builtin(name string) (*Profile, error) {
	data, err := StaticProfiles.Find(name + builtinSuffix)
	if err != nil {
		return nil, errors.Wrapf(err, "builtin profile %s", name)
	}
	return Decode(data)
}

// Decode parses a profile from JSON
func Decode(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return &p, nil
}
