package osu

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/osuapi/auth"
	"github.com/s0up4200/osuapi/transport"
)

type usersResponse struct {
	Users []User `json:"users"`
}

// UsersByID looks up many users at once. Ids are sent in batches of the
// API's maximum, several batches in parallel. The result follows the order
// of ids; ids the API does not know are left out.
func (c *Client) UsersByID(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	batches := make([][]User, (len(ids)+maxUsersPerLookup-1)/maxUsersPerLookup)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.lookupConcurrency)

	for i := 0; i < len(ids); i += maxUsersPerLookup {
		batch := ids[i:min(i+maxUsersPerLookup, len(ids))]
		slot := i / maxUsersPerLookup

		g.Go(func() error {
			q := url.Values{}
			for _, id := range batch {
				q.Add("ids[]", strconv.FormatInt(id, 10))
			}
			resp, err := get[usersResponse](ctx, c, transport.Get("/users", q, auth.ScopePublic))
			if err != nil {
				return fmt.Errorf("failed to look up users: %w", err)
			}
			batches[slot] = resp.Users
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]User, len(ids))
	for _, batch := range batches {
		for _, u := range batch {
			byID[u.ID] = u
		}
	}

	users := make([]User, 0, len(byID))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		users = append(users, u)
	}

	c.logger.Debug().
		Int("requested", len(ids)).
		Int("found", len(users)).
		Int("batches", len(batches)).
		Msg("Looked up users")
	return users, nil
}
