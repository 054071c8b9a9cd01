package model

import "strings"

// Company is a single entry from an input list. Fields carries the original
// source columns so scrape output can reproduce the input row unchanged.
type Company struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// NewCompany trims the name and keeps the source row as-is.
func NewCompany(name string, fields []string) Company {
	return Company{Name: strings.TrimSpace(name), Fields: fields}
}

// Empty reports whether the entry has no usable name.
func (c Company) Empty() bool {
	return c.Name == ""
}

// DedupeCompanies drops empty names and repeats, preserving first-seen order.
func DedupeCompanies(companies []Company) []Company {
	seen := make(map[string]struct{}, len(companies))
	out := make([]Company, 0, len(companies))
	for _, c := range companies {
		if c.Empty() {
			continue
		}
		key := strings.ToLower(c.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
