package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Component tags the emitting package.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// RequestID adds the response id.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Chart adds the visualization type.
func Chart(chartType string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("chart", chartType)
	}
}

// Renderer adds the selected renderer.
func Renderer(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("renderer", kind)
	}
}

// Rows adds a row count.
func Rows(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("rows", n)
	}
}

// SQL adds the executed statement.
func SQL(query string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("sql", query)
	}
}

// CacheStats adds cache hit and miss counts.
func CacheStats(hits, misses int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("cache_hits", hits).Int64("cache_misses", misses)
	}
}

// Duration adds a duration in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached marks whether a response came from the cache.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// ErrorField adds err when it is non-nil.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with a custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
