// Package memsearch embeds the memsearch fact store and similarity search
// pipeline in a Go program, without running the HTTP server.
//
// Facts are short texts owned by an owner scope. Adding a fact embeds it
// (through the embedding cache) and stores the vector; searching embeds the
// query, optionally expands it first, and returns a ranked, paginated page.
//
//	client, _ := memsearch.New(ctx,
//	    memsearch.WithLocal(""),           // in-memory badger + chromem
//	    memsearch.WithEmbedder(myEmbedder), // required
//	    memsearch.WithVectorDimensions(1536),
//	)
//	defer client.Close()
//
//	_, _ = client.Facts("alice").Add(ctx, "Met Bob at the Go meetup in Lisbon")
//	page, _ := client.Search("alice").Query(ctx, "conference contacts", memsearch.Limit(10))
//	for _, hit := range page.Hits {
//	    fmt.Println(hit.Score, hit.Text)
//	}
package memsearch
