package dremio

import (
	"context"
	"strings"
)

const pathSQL = "/api/v3/sql"

type sqlRequest struct {
	SQL string `json:"sql"`
}

type sqlResponse struct {
	ID string `json:"id"`
}

// SubmitSQL posts one statement to /api/v3/sql and returns the job id.
// Transient statuses are retried per the client's retry options.
func (c *Client) SubmitSQL(ctx context.Context, stmt string) (string, error) {
	var out sqlResponse
	if err := c.doJSON(ctx, "POST", pathSQL, sqlRequest{SQL: stmt}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// SplitStatements splits a seed script into executable statements:
// full-line "--" comments are dropped, the rest is split on ";" and trimmed.
func SplitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var out []string
	for _, raw := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt := strings.TrimSpace(raw)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
