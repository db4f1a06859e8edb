// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package parse

import (
	"strconv"

	"github.com/bpowers/yamlblob/internal/store"
)

// classify guesses a scalar's type from its ASCII text.  The result is
// only ever stored as a hint; values are never converted.
func classify(b []byte) store.Style {
	if len(b) == 0 {
		return store.StyleString
	}
	switch string(b) {
	case "true", "True", "TRUE", "false", "False", "FALSE":
		return store.StyleBool
	}
	if !hasDigit(b) {
		return store.StyleString
	}
	s := string(b)
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return store.StyleInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return store.StyleFloat
	}
	return store.StyleString
}

func hasDigit(b []byte) bool {
	for _, c := range b {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
