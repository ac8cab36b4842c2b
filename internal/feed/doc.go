// Package feed streams live backend events over websockets.
//
// The backend publishes activity log entries on /ws/activities/ and schedule
// changes on /ws/schedules/. A Client derives the ws:// or wss:// URL from the
// REST base URL and authenticates with the session's access token as a
// query parameter.
//
//	sub, err := feed.New(settings.BaseURL, store).Activities(ctx)
//	if err != nil {
//	    return err
//	}
//	for a := range sub.Events() {
//	    fmt.Println(a.Line())
//	}
//	return sub.Err()
//
// Subscriptions keep the connection alive with pings, enforce a read
// deadline and send a normal close frame when their context is cancelled.
package feed
