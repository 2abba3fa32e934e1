// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package huddle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hearth-chat/hearth/directory"
)

// FullName renders every participant's display name in key order,
// joined with ", ". Ids the directory cannot resolve render as the
// raw id.
func FullName(dir directory.Directory, key Key) string {
	return strings.Join(participantNames(dir, key), ", ")
}

// ShortName renders a compact participant list: names sorted
// case-insensitively, the first three kept, and a literal
// " + 1 other" or " + N others" suffix for the rest. The exact shape
// is a UI compatibility contract.
func ShortName(dir directory.Directory, key Key) string {
	names := participantNames(dir, key)
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}

	others := len(names) - 3
	suffix := fmt.Sprintf(" + %d others", others)
	if others == 1 {
		suffix = " + 1 other"
	}
	return strings.Join(names[:3], ", ") + suffix
}

// DisplayName renders a key in either form.
func DisplayName(dir directory.Directory, key Key, short bool) string {
	if short {
		return ShortName(dir, key)
	}
	return FullName(dir, key)
}

func participantNames(dir directory.Directory, key Key) []string {
	ids := key.UserIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if person, ok := dir.Lookup(id); ok && person.Name != "" {
			names = append(names, person.Name)
			continue
		}
		names = append(names, id.String())
	}
	return names
}
