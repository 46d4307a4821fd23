// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// MarshalNoHTMLEscape is nearly same as json.Marshal but does NOT HTLM-escape <, > or &
// However it does add a newline char at the end (as done by json.Encoder.Encode)
func MarshalNoHTMLEscape(v interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	enc := json.NewEncoder(buffer)
	enc.SetEscapeHTML(false)
	err := enc.Encode(v)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// StringArrayContains checks if a string array contains the string elem
func StringArrayContains(ar []string, elem string) bool {
	for _, val := range ar {
		if val == elem {
			return true
		}
	}
	return false
}

// Truncate shortens the given data to at most max bytes and appends the number of omitted bytes.
// The data is never cut inside of a utf-8 encoded rune.
func Truncate(data []byte, max int) string {
	if max < 0 || len(data) <= max {
		return string(data)
	}
	end := max
	for end > 0 && !utf8.RuneStart(data[end]) {
		end--
	}
	return fmt.Sprintf("%s... (%d more bytes)", data[:end], len(data)-end)
}
