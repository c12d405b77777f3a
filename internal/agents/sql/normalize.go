package sql

import (
	"strconv"
	"strings"
	"time"
)

// Normalize converts a scanned driver value into a row scalar: string,
// float64, int64, bool or nil. dbType is the driver's DatabaseTypeName.
func Normalize(v any, dbType string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeText(string(t), dbType)
	case string:
		return normalizeText(t, dbType)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64, float64, bool:
		return t
	case float32:
		return float64(t)
	case time.Time:
		if dbType == "DATE" {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	default:
		return t
	}
}

func normalizeText(s, dbType string) any {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL", "FLOAT4", "FLOAT8", "MONEY":
		if f, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64); err == nil {
			return f
		}
	case "INT2", "INT4", "INT8":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return s
}
