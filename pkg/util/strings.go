package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/**
* String helpers shared by the upstream normalisers
* - fuzzy comparison of team names returned by search endpoints
* - lenient coercion of decoded JSON values into ints, floats and strings
 */

// NormaliseName lowercases a name and collapses runs of whitespace
func NormaliseName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LevenshteinDistance calculates the edit distance between two strings, rune by rune
// so that accented team names (São Paulo, Grêmio) count one edit per character
func LevenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// two rolling rows are enough
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// NameSimilarity returns a similarity score between 0.0 and 1.0
// where 1.0 is an exact (normalised) match. A name wholly contained in the
// other, such as "Palmeiras" in "SE Palmeiras", scores at least 0.9
func NameSimilarity(a, b string) float64 {
	a, b = NormaliseName(a), NormaliseName(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	score := 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		score = math.Max(score, 0.9)
	}
	return score
}

// BestNameMatch returns the index of the candidate most similar to query, or -1
// when there are no candidates. Ties go to the earliest candidate
func BestNameMatch(query string, candidates []string) int {
	best, bestScore := -1, -1.0
	for i, c := range candidates {
		if s := NameSimilarity(query, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// GetAsString converts various types to string
// If s is a string, return it
// If s is any form of number, format it
// nil is an error, anything else falls back to %v
func GetAsString(s any) (string, error) {
	switch v := s.(type) {
	case nil:
		return "", fmt.Errorf("cannot convert nil to string")
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// GetAsInteger converts a decoded JSON value to an int
// Whole floats, json.Number and numeric strings are accepted. Booleans are not
// numbers, even though some upstreams put a bool where a count is documented
func GetAsInteger(s any) (int, error) {
	switch v := s.(type) {
	case nil:
		return 0, fmt.Errorf("cannot convert nil to integer")
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("int64 value %d is out of int range", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("float64 value %f is not a whole number", v)
		}
		return int(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert number '%s' to integer: %w", v, err)
		}
		return GetAsInteger(i)
	case string:
		result, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to integer: %w", v, err)
		}
		return result, nil
	default:
		return 0, fmt.Errorf("cannot convert type %T to integer", s)
	}
}

// GetAsFloat converts a decoded JSON value to a float64
// Prices arrive both as numbers and as numeric strings ("1.85")
func GetAsFloat(s any) (float64, error) {
	switch v := s.(type) {
	case nil:
		return 0, fmt.Errorf("cannot convert nil to float")
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to float: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert type %T to float", s)
	}
}
