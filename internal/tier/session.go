package tier

import (
	"context"
	"fmt"
	"time"

	"github.com/perpdash/perpdash/internal/model"
)

// sessionPath is the tier lookup endpoint.
const sessionPath = "/api/v1/session"

// Session is the resolved subscription for this dashboard instance.
type Session struct {
	Tier            model.Tier
	RefreshInterval time.Duration
}

// sessionResponse is the wire shape of the session endpoint.
type sessionResponse struct {
	Tier              int   `json:"tier"`
	RefreshIntervalMs int64 `json:"refresh_interval_ms"`
}

// GetSession resolves the subscription tier and repaint interval.
func (c *Client) GetSession(ctx context.Context) (Session, error) {
	var resp sessionResponse
	if err := c.get(ctx, sessionPath, &resp); err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	if resp.Tier < int(model.TierFree) || resp.Tier > int(model.TierElite) {
		return Session{}, fmt.Errorf("session service returned unknown tier %d", resp.Tier)
	}
	if resp.RefreshIntervalMs <= 0 {
		return Session{}, fmt.Errorf("session service returned non-positive refresh interval %d", resp.RefreshIntervalMs)
	}

	return Session{
		Tier:            model.Tier(resp.Tier),
		RefreshInterval: time.Duration(resp.RefreshIntervalMs) * time.Millisecond,
	}, nil
}
