// Package trace tags a unit of work (an import run or a consumed message)
// with an id that every log line of that work carries.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RunIDKey is the context key for the run id
	RunIDKey ContextKey = "run_id"
)

// Prefixes of generated run ids.
const (
	PrefixImport  = "imp"
	PrefixMessage = "msg"
)

// GenerateRunID creates a unique id such as "imp_1f2e3d4c5b6a7988".
func GenerateRunID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// WithRunID returns ctx carrying id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// NewRun returns ctx carrying a fresh id with prefix, and the id.
func NewRun(ctx context.Context, prefix string) (context.Context, string) {
	id := GenerateRunID(prefix)
	return WithRunID(ctx, id), id
}

// GetRunID extracts the run id from context
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}
