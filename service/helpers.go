package service

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseObjectID converts a hex id, reporting a not-found error for
// malformed values so invalid ids and missing documents look alike.
func parseObjectID(id, resource string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFoundf("no %s with id %s", resource, id)
	}
	return oid, nil
}

// parseObjectIDs converts hex ids, rejecting the whole batch on the first
// malformed value.
func parseObjectIDs(ids []string, resource string) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, invalidf("invalid %s id: %s", resource, id)
		}
		out = append(out, oid)
	}
	return out, nil
}

// parseBoolParam interprets an optional true/false query value.
func parseBoolParam(v string) *bool {
	switch v {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}

// splitFields parses a comma-separated projection list.
func splitFields(fields string) []string {
	var out []string
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// containsID reports whether ids contains id.
func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// removeID returns ids without id.
func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
