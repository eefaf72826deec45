// Package netcheck provides the reachability probe used before remote calls.
//
// The probe distinguishes "no internet" from "remote rejected the request":
// callers retry the former and surface the latter. It dials a well-known
// endpoint with a short timeout instead of issuing a real API call, so the
// check is cheap and quota-free.
package netcheck

import (
	"fmt"
	"net"
	"time"

	"github.com/burakseven/takip/internal/errs"
)

// DefaultAddr is the endpoint probed before Google API traffic.
const DefaultAddr = "www.googleapis.com:443"

// DefaultTimeout bounds the probe; past this we declare offline rather than
// keep the caller waiting.
const DefaultTimeout = 5 * time.Second

// Prober reports whether the network is reachable. It exists so tests and
// the offline adapter can substitute their own answer.
type Prober func() error

// Probe dials addr within timeout and returns errs.ErrNoInternet when the
// dial fails.
func Probe(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrNoInternet, err)
	}
	_ = conn.Close()
	return nil
}

// Default is the production prober.
func Default() error {
	return Probe(DefaultAddr, DefaultTimeout)
}
