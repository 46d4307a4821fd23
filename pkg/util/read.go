// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"bufio"
	"bytes"
	"iter"
)

// MaxLineSize is the maximum length of a single line returned by ReadLines.
const MaxLineSize = 50 * 1024 * 1024

// ReadLines iterates over every line of the document without its line ending.
// Iteration stops at the first line that exceeds MaxLineSize.
func ReadLines(document []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		scanner := bufio.NewScanner(bytes.NewReader(document))
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			// the scanner reuses its buffer
			line := append([]byte(nil), scanner.Bytes()...)
			if !yield(line) {
				return
			}
		}
	}
}
