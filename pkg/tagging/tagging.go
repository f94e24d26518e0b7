// Package tagging suggests task tags from a free-text description.
package tagging

import (
	"context"
	"sort"
	"strings"
)

type Suggester interface {
	Suggest(ctx context.Context, text string) ([]string, error)
}

type rule struct {
	tag      string
	keywords []string
}

var keywordRules = []rule{
	{tag: "bug", keywords: []string{"bug", "fix", "error", "traceback"}},
	{tag: "api", keywords: []string{"api", "endpoint", "swagger", "openapi"}},
	{tag: "urgent", keywords: []string{"urgent", "asap", "p0", "p1"}},
	{tag: "feature", keywords: []string{"feature", "new", "implement"}},
}

// KeywordSuggester matches lowercase substrings, so "prefix" counts as "fix".
type KeywordSuggester struct{}

func (KeywordSuggester) Suggest(_ context.Context, text string) ([]string, error) {
	return SuggestKeywords(text), nil
}

func SuggestKeywords(text string) []string {
	text = strings.ToLower(text)
	var tags []string
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, r.tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// ParseList splits a comma separated tag list, trimming blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Merge returns the sorted union of the given tag lists.
func Merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
