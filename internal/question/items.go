package question

import (
	"sort"
	"strings"

	"text2cypher/internal/cypher"
	"text2cypher/internal/result"
)

// Items converts a validated spec into items with normalized gold results.
func Items(spec Spec) []Item {
	items := make([]Item, 0, len(spec.Questions))
	for _, question := range spec.Questions {
		ordered := false
		if question.Gold.Ordered != nil {
			ordered = *question.Gold.Ordered
		} else if question.GoldQuery != "" {
			ordered = cypher.HasOrderBy(question.GoldQuery)
		}
		items = append(items, Item{
			ID:        question.ID,
			Text:      question.Prompt,
			Gold:      result.Normalize(result.Raw{Rows: question.Gold.Rows, Ordered: ordered}),
			GoldQuery: question.GoldQuery,
		})
	}
	return items
}

// Filter keeps items whose id is listed. An empty id list keeps all items.
func Filter(items []Item, ids []string) []Item {
	wanted := map[string]struct{}{}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return append([]Item(nil), items...)
	}
	out := make([]Item, 0, len(wanted))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// SortByID orders items by id in place.
func SortByID(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
