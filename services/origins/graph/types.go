// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

// NodeID is the stable integer identifier the graph engine assigns to a node.
// IDs are dense (0..NodeCount-1) and never reassigned within a process.
type NodeID = uint64

// NodeType classifies a node in the provenance graph.
type NodeType int

const (
	// NodeTypeUnknown indicates an unrecognized or out-of-range node.
	NodeTypeUnknown NodeType = iota

	// NodeTypeOrigin is a tracked source location (e.g., a repository URL).
	NodeTypeOrigin

	// NodeTypeSnapshot captures the state of an origin's refs at one visit.
	NodeTypeSnapshot

	// NodeTypeRevision is a single commit-like change.
	NodeTypeRevision

	// NodeTypeRelease is a tagged pointer to one or more revisions.
	NodeTypeRelease

	// NodeTypeContent is a file blob.
	NodeTypeContent

	// NodeTypeDirectory is a directory tree entry.
	NodeTypeDirectory
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case NodeTypeOrigin:
		return "origin"
	case NodeTypeSnapshot:
		return "snapshot"
	case NodeTypeRevision:
		return "revision"
	case NodeTypeRelease:
		return "release"
	case NodeTypeContent:
		return "content"
	case NodeTypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// swhidTag returns the three-letter tag used in SWHID strings.
func (t NodeType) swhidTag() string {
	switch t {
	case NodeTypeOrigin:
		return "ori"
	case NodeTypeSnapshot:
		return "snp"
	case NodeTypeRevision:
		return "rev"
	case NodeTypeRelease:
		return "rel"
	case NodeTypeContent:
		return "cnt"
	case NodeTypeDirectory:
		return "dir"
	default:
		return "unk"
	}
}

// ParseNodeType maps a type name ("origin", "revision", ...) to a NodeType.
// Unrecognized names map to NodeTypeUnknown.
func ParseNodeType(s string) NodeType {
	switch s {
	case "origin":
		return NodeTypeOrigin
	case "snapshot":
		return NodeTypeSnapshot
	case "revision":
		return NodeTypeRevision
	case "release":
		return NodeTypeRelease
	case "content":
		return NodeTypeContent
	case "directory":
		return NodeTypeDirectory
	default:
		return NodeTypeUnknown
	}
}

// Visit identifies one resolved snapshot of an origin. Generation is the
// zero-based position of the visit in the origin's append-only visit history;
// higher generations are more recent.
type Visit struct {
	Snapshot   NodeID
	Generation uint64
}
