package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// NormalizeSymbol trims whitespace and uppercases a ticker symbol so cache
// keys and storage rows agree on one spelling.
func NormalizeSymbol(s string) string {
    return strings.ToUpper(strings.TrimSpace(s))
}
