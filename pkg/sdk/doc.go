// Package signalsearch embeds the signalsearch hybrid retrieval engine in a Go program.
//
// The client talks to Redis (lexical and vector index) and Postgres (signal records)
// directly; no API server is involved.
//
//	client, err := signalsearch.New(ctx,
//	    signalsearch.WithRedis("localhost:6379", ""),
//	    signalsearch.WithPostgres("postgres://signals@localhost/signals"),
//	    signalsearch.WithOpenAI("http://localhost:8081/v1", "", "all-MiniLM-L6-v2"),
//	    signalsearch.WithVectorDimensions(384),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	_, _ = client.EnsureIndex(ctx)
//	_ = client.Index(ctx, workspaceID, signalID)
//	resp, _ := client.Search(ctx, signalsearch.SearchRequest{
//	    WorkspaceID: workspaceID,
//	    Query:       "AI machine learning",
//	    Filter:      signalsearch.Filter{Sources: []string{"github"}},
//	})
//
// Without an embedder the client still searches: the vector branch degrades and
// results come from BM25 alone. Indexing requires an embedder.
package signalsearch
