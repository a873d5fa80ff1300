// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/devblok/vkctx/utility/kar"
)

const (
	manifestEntry = "profile"
	devicePrefix  = "devices/"
)

// Save writes p as a kar archive: a manifest entry followed by one
// entry per physical device.
func Save(w io.Writer, p *Profile, author string) error {
	builder := kar.NewBuilder(kar.Header{
		Author:      author,
		DateCreated: time.Now().Unix(),
	})

	manifest := *p
	manifest.Devices = nil
	if err := addJSON(builder, manifestEntry, manifest); err != nil {
		return err
	}
	for idx, dev := range p.Devices {
		if err := addJSON(builder, fmt.Sprintf("%s%03d", devicePrefix, idx), dev); err != nil {
			return err
		}
	}

	_, err := builder.WriteTo(w)
	return errors.Wrap(err, "write profile archive")
}

func addJSON(builder *kar.Builder, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", name)
	}
	return builder.Add(name, data)
}

// Load reads a profile written by Save
func Load(r io.ReaderAt) (*Profile, error) {
	archive, err := kar.Open(r)
	if err != nil {
		return nil, errors.Wrap(err, "open profile archive")
	}

	var p Profile
	if err := readJSON(archive, manifestEntry, &p); err != nil {
		return nil, err
	}
	for _, name := range archive.Names() {
		if !strings.HasPrefix(name, devicePrefix) {
			continue
		}
		var dev DeviceProfile
		if err := readJSON(archive, name, &dev); err != nil {
			return nil, err
		}
		p.Devices = append(p.Devices, dev)
	}
	return &p, nil
}

func readJSON(archive *kar.Archive, name string, v interface{}) error {
	data, err := archive.ReadAll(name)
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decode %s", name)
}
