package entity

import "strings"

// CollectionPrefix namespaces per-session vector collections so the
// reconciliation sweep can tell them apart from anything else in the index.
const CollectionPrefix = "rag_"

// CollectionName derives the deterministic collection name for a session.
func CollectionName(sessionId string) string {
	return CollectionPrefix + sessionId
}

// SessionFromCollection reverses CollectionName. The second return is false
// when the name does not follow the session-collection convention.
func SessionFromCollection(name string) (string, bool) {
	if !strings.HasPrefix(name, CollectionPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(name, CollectionPrefix)
	if id == "" {
		return "", false
	}
	return id, true
}
