// Copyright 2026 Veritom Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/storage"
)

// minMaxNormalize maps scores into [0,1] by min-max scaling. When all scores
// are equal (including a single score) everything maps to 1.0: a list with
// no spread carries no ranking signal, and its members should not be
// penalized for that.
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	normalized := make([]float64, len(scores))
	if max == min {
		for i := range normalized {
			normalized[i] = 1.0
		}
		return normalized
	}
	for i, s := range scores {
		normalized[i] = (s - min) / (max - min)
	}
	return normalized
}

// fuseCollection combines one collection's dense and sparse match lists into
// candidates. Both lists are min-max normalized independently, then combined
// with the given weights. A document present in only one list scores with
// zero contribution from the other. Candidate order is dense order followed
// by sparse-only documents in sparse order, which keeps fusion deterministic.
func fuseCollection(dense []storage.DenseMatch, sparse []lexical.Match, denseWeight, sparseWeight float64) []*core.Candidate {
	if len(dense) == 0 && len(sparse) == 0 {
		return nil
	}

	denseScores := make([]float64, len(dense))
	for i, m := range dense {
		denseScores[i] = m.Score
	}
	denseNorm := minMaxNormalize(denseScores)

	sparseScores := make([]float64, len(sparse))
	for i, m := range sparse {
		sparseScores[i] = m.Score
	}
	sparseNorm := minMaxNormalize(sparseScores)

	byID := make(map[string]*core.Candidate, len(dense)+len(sparse))
	ordered := make([]*core.Candidate, 0, len(dense)+len(sparse))

	for i, m := range dense {
		c := &core.Candidate{DocumentID: m.DocumentID, DenseScore: denseNorm[i]}
		byID[m.DocumentID] = c
		ordered = append(ordered, c)
	}
	for i, m := range sparse {
		if c, ok := byID[m.DocumentID]; ok {
			c.SparseScore = sparseNorm[i]
			continue
		}
		c := &core.Candidate{DocumentID: m.DocumentID, SparseScore: sparseNorm[i]}
		byID[m.DocumentID] = c
		ordered = append(ordered, c)
	}

	for _, c := range ordered {
		c.FusedScore = denseWeight*c.DenseScore + sparseWeight*c.SparseScore
	}
	return ordered
}
