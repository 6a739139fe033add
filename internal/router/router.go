package router

import (
	"context"
	"errors"
	"fmt"
)

// MaxRedirects bounds the redirects followed by a single navigation.
const MaxRedirects = 5

var ErrRedirectLoop = errors.New("too many redirects")

// Navigation is the settled result of a navigation. Match is the route that
// was finally allowed; Redirects lists the paths visited before it.
type Navigation struct {
	Match     *Match
	Redirects []string
	// Decision is the last non-allow guard outcome, if any
	Decision Decision
}

func (n *Navigation) Redirected() bool {
	return len(n.Redirects) > 0
}

type Router struct {
	table *Table
	guard *Guard
}

func New(table *Table, auth Authenticator) *Router {
	return &Router{
		table: table,
		guard: NewGuard(auth),
	}
}

func (r *Router) Table() *Table {
	return r.table
}

func (r *Router) Guard() *Guard {
	return r.guard
}

// Navigate resolves fullPath and follows route redirects and guard redirects
// until a route is allowed. The navigation does not settle before the session
// is initialized.
func (r *Router) Navigate(ctx context.Context, fullPath string) (*Navigation, error) {
	nav := &Navigation{}
	current := fullPath

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return nil, fmt.Errorf("%w: %v", ErrRedirectLoop, append(nav.Redirects, current))
		}

		match, err := r.table.Resolve(current)
		if err != nil {
			return nil, err
		}

		if len(match.Redirect) > 0 {
			target, err := r.table.PathFor(match.Redirect, match.Params)
			if err != nil {
				return nil, err
			}
			if len(match.Query) > 0 {
				target += "?" + match.Query.Encode()
			}
			nav.Redirects = append(nav.Redirects, current)
			current = target
			continue
		}

		decision, err := r.guard.Check(ctx, match)
		if err != nil {
			return nil, err
		}
		if decision.Outcome == Allow {
			nav.Match = match
			return nav, nil
		}

		nav.Decision = decision
		nav.Redirects = append(nav.Redirects, current)
		current = decision.Target
	}
}
