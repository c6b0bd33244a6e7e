package model

import (
	"fmt"
	"strings"
)

// Category tags a finding with the concern it belongs to. The weight a
// category carries lives in the governed weight table, not here.
type Category string

const (
	CategorySecurity  Category = "security"
	CategoryPrivacy   Category = "privacy"
	CategoryFinance   Category = "finance"
	CategoryBuild     Category = "build"
	CategoryTypes     Category = "types"
	CategoryUI        Category = "ui"
	CategoryAgent     Category = "agent"
	CategoryKnowledge Category = "knowledge"
	CategoryGeneral   Category = "general"
)

var knownCategories = map[Category]bool{
	CategorySecurity:  true,
	CategoryPrivacy:   true,
	CategoryFinance:   true,
	CategoryBuild:     true,
	CategoryTypes:     true,
	CategoryUI:        true,
	CategoryAgent:     true,
	CategoryKnowledge: true,
	CategoryGeneral:   true,
}

// Categories returns all known categories in a fixed, deterministic order.
func Categories() []Category {
	return []Category{
		CategorySecurity, CategoryPrivacy, CategoryFinance, CategoryBuild,
		CategoryTypes, CategoryUI, CategoryAgent, CategoryKnowledge,
		CategoryGeneral,
	}
}

// ParseCategory maps an ingested string to a Category. Matching is
// case-insensitive; unknown values fail with ErrUnknownEnumValue.
// Weight lookup for categories absent from a weight table defaults to 1.0,
// but string ingestion of an unknown category is always an error.
func ParseCategory(s string) (Category, error) {
	cat := Category(strings.ToLower(strings.TrimSpace(s)))
	if !knownCategories[cat] {
		return "", fmt.Errorf("%w: category %q", ErrUnknownEnumValue, s)
	}
	return cat, nil
}
