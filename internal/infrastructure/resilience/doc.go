/*
Package resilience provides the circuit breakers that guard outbound
document fetches.

An inspection fetches the top-level page and every iframe document it
embeds. Frames usually come from many different origins, so breakers are
kept per origin in a Group: an ad server that stops answering trips its own
breaker without affecting the rest of the page.

	group := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	doc, err := resilience.Do(group.Get("https://ads.example"), func() (*Document, error) {
		return fetch(ctx, url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
