// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flat

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns a string summarizing the Meta fields.
func (m *Meta) String() string {
	var b strings.Builder
	b.WriteString("Meta{")
	if err := safeFlatBuffersInteraction(func() error {
		stringUint64(&b, "Version", uint64(m.Version()))
		stringUint64(&b, ",Dims", uint64(m.Dims()))
		stringUint64(&b, ",MaxEntries", uint64(m.MaxEntries()))
		stringUint64(&b, ",MinEntries", uint64(m.MinEntries()))
		stringStr(&b, ",Split", m.Split().String())
		stringStr(&b, ",BulkFill", strconv.FormatFloat(m.BulkFill(), 'g', -1, 64))
		stringUint64(&b, ",Root", m.Root())
		stringUint64(&b, ",Height", uint64(m.Height()))
		stringUint64(&b, ",Count", m.Count())
		return nil
	}); err != nil {
		return "error: " + err.Error()
	}
	b.WriteByte('}')
	return b.String()
}

func stringKey(b *strings.Builder, key string) {
	b.WriteString(key)
	b.WriteByte(':')
}

func stringStr(b *strings.Builder, key string, value string) {
	stringKey(b, key)
	b.WriteString(value)
}

func stringUint64(b *strings.Builder, key string, value uint64) {
	stringKey(b, key)
	b.WriteString(strconv.FormatUint(value, 10))
}

// safeFlatBuffersInteraction runs a function that interacts with
// FlatBuffers, trapping any panic that occurs and converting it to a
// normal Go error.
func safeFlatBuffersInteraction(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: flatbuffers: %v", r)
		}
	}()
	err = f()
	return
}
