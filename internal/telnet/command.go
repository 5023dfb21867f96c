// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package telnet

import "strings"

// parseCommand splits a line into a lower-cased command and the remaining
// argument text.
func parseCommand(input string) (cmd, arg string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ""
	}

	parts := strings.SplitN(input, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

// splitFieldValue splits "set" arguments into a field name and a value.
// The value keeps inner spaces.
func splitFieldValue(arg string) (field, value string) {
	parts := strings.SplitN(arg, " ", 2)
	field = strings.ToLower(parts[0])
	if len(parts) > 1 {
		value = strings.TrimSpace(parts[1])
	}
	return field, value
}
