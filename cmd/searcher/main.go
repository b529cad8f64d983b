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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/veritom/knowbase"
	"github.com/veritom/knowbase/search"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	kb, err := knowbase.Open("./knowbase_db")
	if err != nil {
		panic(err)
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher()
	if err != nil {
		panic(err)
	}

	query := "connection timeout"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	resp, err := searcher.Search(context.Background(), search.Request{
		Query:      query,
		MaxResults: 5,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits", len(resp.Results))
	if resp.Degraded {
		fmt.Printf(" (degraded, reranker unavailable)")
	}
	fmt.Println()
	for _, hit := range resp.Results {
		marker := " "
		if hit.Exact {
			marker = "*"
		}
		fmt.Printf("%d:%s '%s' (%s)[%0.3f]\n", hit.Rank, marker, hit.Document.Content, hit.SourceType, hit.Similarity)
	}
}
