package view

import (
	"sort"

	"circle/internal/models"
)

// DateLabelFormat is the layout of group header labels.
const DateLabelFormat = "2006-01-02"

// Entry is one item of the grouped list: either a date header or a row.
type Entry struct {
	Header      bool                `json:"header"`
	Label       string              `json:"label,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// Group buckets txs by calendar date and flattens the buckets, newest date
// first, into headers each followed by that date's rows in input order.
// The result depends only on txs.
func Group(txs []models.Transaction) []Entry {
	buckets := make(map[string][]int)
	var labels []string
	for i := range txs {
		label := txs[i].Date.Local().Format(DateLabelFormat)
		if _, ok := buckets[label]; !ok {
			labels = append(labels, label)
		}
		buckets[label] = append(buckets[label], i)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))

	entries := make([]Entry, 0, len(txs)+len(labels))
	for _, label := range labels {
		entries = append(entries, Entry{Header: true, Label: label})
		for _, i := range buckets[label] {
			tx := txs[i]
			entries = append(entries, Entry{Label: label, Transaction: &tx})
		}
	}
	return entries
}
