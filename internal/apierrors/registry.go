package apierrors

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// ErrorCode represents a registered client error code
type ErrorCode struct {
	Code       string `json:"code"`        // Full namespaced code (e.g., "core:network")
	Message    string `json:"message"`     // Default user-facing message
	HTTPStatus int    `json:"http_status"` // Status the code usually travels with, 0 for client-side only
}

// Enumerator is implemented by packages that declare their own error codes
type Enumerator interface {
	EnumerateErrors() []ErrorCode
}

type registry struct {
	mu    sync.RWMutex
	codes map[string]ErrorCode // code -> ErrorCode
	byNS  map[string][]string  // namespace -> []code
}

// Registry is the global error code registry
var Registry = &registry{
	codes: make(map[string]ErrorCode),
	byNS:  make(map[string][]string),
}

// Register adds an error code to the registry. Re-registering a code replaces
// its message without duplicating the namespace entry.
func (r *registry) Register(e ErrorCode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.codes[e.Code]
	r.codes[e.Code] = e
	if existed {
		return
	}

	ns := "core"
	if idx := strings.Index(e.Code, ":"); idx > 0 {
		ns = e.Code[:idx]
	}
	r.byNS[ns] = append(r.byNS[ns], e.Code)
}

// RegisterNamespace registers every code of an enumerator, prefixing bare
// codes with the namespace.
func (r *registry) RegisterNamespace(ns string, enumerator Enumerator) {
	for _, e := range enumerator.EnumerateErrors() {
		if !strings.Contains(e.Code, ":") {
			e.Code = ns + ":" + e.Code
		}
		r.Register(e)
	}
}

// Get returns an error code by its full code string
func (r *registry) Get(code string) (ErrorCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.codes[code]
	return e, ok
}

// All returns all registered error codes sorted by code
func (r *registry) All() []ErrorCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ErrorCode, 0, len(r.codes))
	for _, e := range r.codes {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// ByNamespace returns all error codes for a given namespace
func (r *registry) ByNamespace(ns string) []ErrorCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes, ok := r.byNS[ns]
	if !ok {
		return nil
	}

	result := make([]ErrorCode, 0, len(codes))
	for _, code := range codes {
		if e, ok := r.codes[code]; ok {
			result = append(result, e)
		}
	}
	return result
}

// HTTPStatus returns the status a code travels with, or 500 if unknown
func (r *registry) HTTPStatus(code string) int {
	if e, ok := r.Get(code); ok {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Message returns the default message for a code, or the code itself if unknown
func (r *registry) Message(code string) string {
	if e, ok := r.Get(code); ok {
		return e.Message
	}
	return code
}
