// Package contacts owns the contact list and its alphabetical grouping.
package contacts

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// FallbackKey is the group for members without a first name.
const FallbackKey = "#"

// Group is one letter of the directory. Groups are rebuilt on every change;
// do not keep references across rebuilds.
type Group struct {
	Key     string        `json:"key"`
	Members []task.Member `json:"members"`
}

// GroupMembers buckets members by the uppercased first character of their
// first name. Groups are ordered by key and members by first plus last
// name, both compared with the collation rules of tag.
func GroupMembers(members []task.Member, tag language.Tag) []Group {
	upper := cases.Upper(tag)
	// A Collator is not safe for concurrent use, so each call gets its own.
	col := collate.New(tag)

	byKey := make(map[string][]task.Member)
	var keys []string
	for _, m := range members {
		key := groupKey(m, upper)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], m)
	}

	slices.SortStableFunc(keys, col.CompareString)

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		list := byKey[key]
		slices.SortStableFunc(list, func(a, b task.Member) int {
			if c := col.CompareString(sortName(a), sortName(b)); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		groups = append(groups, Group{Key: key, Members: list})
	}
	return groups
}

// Flatten returns the members of groups in group order.
func Flatten(groups []Group) []task.Member {
	var n int
	for _, g := range groups {
		n += len(g.Members)
	}
	out := make([]task.Member, 0, n)
	for _, g := range groups {
		out = append(out, g.Members...)
	}
	return out
}

func groupKey(m task.Member, upper cases.Caser) string {
	r, size := utf8.DecodeRuneInString(m.User.FirstName)
	if size == 0 {
		return FallbackKey
	}
	return upper.String(string(r))
}

func sortName(m task.Member) string {
	return m.User.FirstName + m.User.LastName
}
