package graphstore

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// Record value accessors. The driver returns properties as any; missing or
// null properties yield the zero value here, while FloatValue reports
// presence separately because absent audio features must be
// distinguishable from 0.0.

func StringValue(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	s, _ := val.(string)
	return s
}

func IntValue(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch n := val.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func FloatValue(record *neo4j.Record, key string) (float64, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0, false
	}
	switch n := val.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func StringsValue(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
