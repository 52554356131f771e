// Package api is the HTTP boundary to the marketplace backend.
//
// The backend lives at a fixed base URL and speaks JSON. Reads return an
// envelope:
//
//	{"success": true, "data": ...}
//
// and writes return the created or updated entity, or {"message": "..."}.
// Every failure is returned as an *errors.Error classified by kind; the
// client never retries.
//
//	client, err := api.New("https://api.example.com/v1",
//	    api.WithToken(token),
//	    api.WithTimeout(10*time.Second),
//	)
//	var zones []Zone
//	err = client.Get(ctx, "/zones", &zones)
package api
