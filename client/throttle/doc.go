// Package throttle limits how fast a client fetches from a plugin
// repository. [NewRoundTripper] wraps a transport with a token bucket
// from [golang.org/x/time/rate]; requests beyond the burst wait for a
// token or for their context to end.
//
// The client package installs it through client.WithThrottle:
//
//	c, err := client.Build(client.WithThrottle(10, 5))
//
// Exhaustion is logged once per blocked request with the target host.
package throttle
