// Package opal provides a client for a single cohort's DataSHIELD/Opal
// data server.
//
// Each cohort in a federated analysis runs its own server; the analyst
// never sees row-level data. The client exposes the platform's existing
// call surface: opening an analysis session, assigning server-side symbols
// from string-built expressions, aggregating disclosure-limited summary
// statistics, browsing the data dictionary, and reading the server's
// disclosure-control settings.
//
// All computation happens on the server. Expressions are evaluated by the
// remote evaluator and only aggregate results come back; cells that would
// violate the server's disclosure thresholds are refused by the server and
// surface here as an *APIError.
//
// Basic usage:
//
//	c := opal.New("alspac", "https://opal.alspac.example.org",
//	    opal.WithToken(token),
//	)
//	if err := c.OpenSession(ctx); err != nil { ... }
//	defer c.CloseSession(context.Background())
//
//	if err := c.Assign(ctx, "D", `loadTableDS("lifecycle.core_1_0")`); err != nil { ... }
//
//	var freq opal.FreqTable
//	if err := c.Aggregate(ctx, `table1dDS(D$sex)`, &freq); err != nil { ... }
package opal
