// Package smartsearch answers free-text questions from JSON documents held
// in a search backend (Redis 8+, Valkey with valkey-search, or an embedded
// bleve index).
//
// A question is split into tokens and searched across every field of the
// index. The best hit is then read as an answer sheet: every token, and
// the canonical field of every token that is a known synonym, is looked up
// as a field name anywhere in the hit's source.
//
//	client, _ := smartsearch.New(ctx, smartsearch.WithInMemory(),
//	    smartsearch.WithLexicon([]smartsearch.Alias{
//	        {Canonical: "price", Terms: []string{"cost", "fee"}},
//	    }, []string{"id"}),
//	)
//	defer client.Close()
//
//	_ = client.CreateIndex(ctx, "products",
//	    smartsearch.Field{Name: "title", Type: smartsearch.FieldText},
//	    smartsearch.Field{Name: "tag", Type: smartsearch.FieldText, Weight: 2},
//	)
//	_, _ = client.BulkLoad(ctx, "products", ndjson, smartsearch.LoaderConfig{})
//
//	res, _ := client.Ask(ctx, "products", "cost of the blue kettle", nil)
//	for _, a := range res.Answers {
//	    fmt.Println(a.Field, a.Paths)
//	}
package smartsearch
