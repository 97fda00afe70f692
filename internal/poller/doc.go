// Package poller provides bounded sleep-and-recheck polling.
//
// Two policies are supported: [Attempts] bounds the number of check
// invocations, [Deadline] bounds wall-clock time. Every readiness check in
// the deployment workflow goes through one of the two rather than carrying
// its own retry loop.
package poller
