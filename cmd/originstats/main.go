// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command originstats computes and serves per-origin statistics for a
// provenance graph dataset.
//
// Usage:
//
//	# build a dataset from a JSON graph description
//	originstats import --src graph.json --dst ./graphdata
//
//	# precompute statistics offline and persist the cache
//	originstats compute --graph ./graphdata --data ./data
//
//	# write a random sample cache
//	originstats sample --graph ./graphdata --data ./data --n 100
//
//	# serve the API
//	originstats serve --graph ./graphdata --data ./data --port 5000
//
// Example requests:
//
//	curl http://localhost:5000/health
//	curl http://localhost:5000/origins
//	curl http://localhost:5000/origins/42/commit-count
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
