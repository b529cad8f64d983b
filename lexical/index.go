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

package lexical

import (
	"math"
	"slices"
	"sync"
)

// Okapi BM25 parameters. Standard values; not worth tuning until a real
// relevance evaluation set exists.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Match is a single sparse retrieval hit.
type Match struct {
	DocumentID string
	Score      float64
}

// collectionIndex holds the BM25 statistics for one collection.
type collectionIndex struct {
	docLengths  map[string]int            // docID -> token count
	termDocFreq map[string]map[string]int // term -> docID -> term frequency
	totalLength int
}

func newCollectionIndex() *collectionIndex {
	return &collectionIndex{
		docLengths:  make(map[string]int),
		termDocFreq: make(map[string]map[string]int),
	}
}

// Index is an in-memory BM25 index partitioned by collection.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collectionIndex
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]*collectionIndex)}
}

// Add indexes the content of one document, replacing any previous entry for
// the same document ID.
func (ix *Index) Add(collection, docID, content string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ci := ix.collections[collection]
	if ci == nil {
		ci = newCollectionIndex()
		ix.collections[collection] = ci
	}
	ci.remove(docID)
	ci.add(docID, content)
}

// Remove drops a document from the index. Removing an unknown document is a
// no-op.
func (ix *Index) Remove(collection, docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ci := ix.collections[collection]; ci != nil {
		ci.remove(docID)
	}
}

// Clear drops the whole collection from the index.
func (ix *Index) Clear(collection string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.collections, collection)
}

// Rebuild replaces the collection's index with the given documents, keyed by
// document ID. Used to resynchronize from the vector store on startup.
func (ix *Index) Rebuild(collection string, docs map[string]string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ci := newCollectionIndex()
	for docID, content := range docs {
		ci.add(docID, content)
	}
	ix.collections[collection] = ci
}

// Count returns the number of indexed documents in the collection.
func (ix *Index) Count(collection string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ci := ix.collections[collection]; ci != nil {
		return len(ci.docLengths)
	}
	return 0
}

// Search scores the query against the collection with Okapi BM25 and returns
// up to k matches ordered by descending score. Documents sharing no query
// term are omitted. An unknown collection or an all-stopword query yields no
// matches.
func (ix *Index) Search(collection, query string, k int) []Match {
	terms := tokenize(query)
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ci := ix.collections[collection]
	if ci == nil || len(ci.docLengths) == 0 {
		return nil
	}

	n := float64(len(ci.docLengths))
	avgLen := float64(ci.totalLength) / n

	scores := make(map[string]float64)
	for _, term := range terms {
		postings := ci.termDocFreq[term]
		if len(postings) == 0 {
			continue
		}
		df := float64(len(postings))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for docID, tf := range postings {
			docLen := float64(ci.docLengths[docID])
			freq := float64(tf)
			scores[docID] += idf * freq * (bm25K1 + 1) /
				(freq + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
	}

	matches := make([]Match, 0, len(scores))
	for docID, score := range scores {
		matches = append(matches, Match{DocumentID: docID, Score: score})
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func (ci *collectionIndex) add(docID, content string) {
	tokens := tokenize(content)
	ci.docLengths[docID] = len(tokens)
	ci.totalLength += len(tokens)
	for _, term := range tokens {
		postings := ci.termDocFreq[term]
		if postings == nil {
			postings = make(map[string]int)
			ci.termDocFreq[term] = postings
		}
		postings[docID]++
	}
}

func (ci *collectionIndex) remove(docID string) {
	length, ok := ci.docLengths[docID]
	if !ok {
		return
	}
	delete(ci.docLengths, docID)
	ci.totalLength -= length
	for term, postings := range ci.termDocFreq {
		if _, ok := postings[docID]; ok {
			delete(postings, docID)
			if len(postings) == 0 {
				delete(ci.termDocFreq, term)
			}
		}
	}
}
