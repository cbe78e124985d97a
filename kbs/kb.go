package kbs

import (
	"strings"
)

type KnowledgeBase struct {
	entries []Entry
	byTitle map[string]int
}

// New indexes entries by title. A later entry with the same title replaces the earlier one.
func New(entries []Entry) *KnowledgeBase {
	kb := &KnowledgeBase{
		byTitle: make(map[string]int),
	}
	for _, entry := range entries {
		if i, ok := kb.byTitle[entry.Title]; ok {
			kb.entries[i] = entry
			continue
		}
		kb.byTitle[entry.Title] = len(kb.entries)
		kb.entries = append(kb.entries, entry)
	}
	return kb
}

func (k *KnowledgeBase) Len() int {
	return len(k.entries)
}

func (k *KnowledgeBase) Entries() []Entry {
	return k.entries
}

func (k *KnowledgeBase) Summaries() []Summary {
	ret := make([]Summary, 0, len(k.entries))
	for _, entry := range k.entries {
		ret = append(ret, entry.Summary())
	}
	return ret
}

func (k *KnowledgeBase) Lookup(title string) (Entry, bool) {
	i, ok := k.byTitle[title]
	if !ok {
		return Entry{}, false
	}
	return k.entries[i], true
}

// SourceFor joins the sources of the named entries in the given order. Unknown titles are ignored.
func (k *KnowledgeBase) SourceFor(titles []string) string {
	var parts []string
	seen := make(map[string]bool)
	for _, title := range titles {
		if seen[title] {
			continue
		}
		seen[title] = true
		entry, ok := k.Lookup(title)
		if !ok {
			continue
		}
		parts = append(parts, strings.TrimSpace(entry.Source))
	}
	return strings.Join(parts, "\n\n")
}

// Source is the text of the kb module: every entry source, in load order.
func (k *KnowledgeBase) Source() string {
	parts := make([]string, 0, len(k.entries))
	for _, entry := range k.entries {
		parts = append(parts, strings.TrimSpace(entry.Source))
	}
	return strings.Join(parts, "\n\n") + "\n"
}
