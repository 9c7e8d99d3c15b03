// Package jobwire provides a Go client for the jobwire semantic job board API.
//
// The client talks to a running jobwire server over HTTP:
//
//	client, _ := jobwire.New("http://localhost:8080", jobwire.WithAPIKey("secret"))
//	result, _ := client.Search(ctx, "backend internship in fintech")
//	for _, m := range result.Jobs {
//	    fmt.Println(m.Title, m.Score)
//	}
//
// Server-side sentinel errors are mapped back to the exported Err* values,
// check them with errors.Is().
package jobwire
