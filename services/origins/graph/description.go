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

import (
	"encoding/json"
	"fmt"
	"io"
)

// NodeDescription describes one node in a JSON graph description. The node's
// ID is its index in the nodes array.
type NodeDescription struct {
	Type               string  `json:"type"`
	Message            string  `json:"message,omitempty"`
	CommitterID        *uint64 `json:"committer_id,omitempty"`
	CommitterTimestamp *int64  `json:"committer_timestamp,omitempty"`
	SWHID              string  `json:"swhid,omitempty"`
}

// VisitDescription describes one origin visit, in visit order.
type VisitDescription struct {
	Origin   uint64 `json:"origin"`
	Snapshot uint64 `json:"snapshot"`
}

// Description is the JSON exchange format consumed by `originstats import`.
type Description struct {
	Nodes  []NodeDescription  `json:"nodes"`
	Edges  [][2]uint64        `json:"edges"`
	Visits []VisitDescription `json:"visits"`
}

// ParseDescription decodes a JSON graph description into a MemoryGraph.
//
// Edges and visits must reference nodes declared in the nodes array;
// dangling references are an error rather than silently dropped, since a
// truncated description would otherwise produce a plausible-looking graph.
func ParseDescription(r io.Reader) (*MemoryGraph, error) {
	var desc Description
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode graph description: %w", err)
	}

	g := NewMemoryGraph()
	for i, n := range desc.Nodes {
		t := ParseNodeType(n.Type)
		if t == NodeTypeUnknown {
			return nil, fmt.Errorf("node %d: unknown type %q", i, n.Type)
		}
		id := g.AddNode(t)
		if n.Message != "" {
			g.SetMessage(id, []byte(n.Message))
		}
		if n.CommitterID != nil {
			g.SetCommitterID(id, *n.CommitterID)
		}
		if n.CommitterTimestamp != nil {
			g.SetCommitterTimestamp(id, *n.CommitterTimestamp)
		}
		if n.SWHID != "" {
			g.SetSWHID(id, n.SWHID)
		}
	}

	count := uint64(len(desc.Nodes))
	for i, e := range desc.Edges {
		if e[0] >= count || e[1] >= count {
			return nil, fmt.Errorf("edge %d: node out of range", i)
		}
		g.AddEdge(e[0], e[1])
	}
	for i, v := range desc.Visits {
		if v.Origin >= count || v.Snapshot >= count {
			return nil, fmt.Errorf("visit %d: node out of range", i)
		}
		if g.NodeType(v.Origin) != NodeTypeOrigin {
			return nil, fmt.Errorf("visit %d: node %d is not an origin", i, v.Origin)
		}
		g.AddVisit(v.Origin, v.Snapshot)
	}
	return g, nil
}
