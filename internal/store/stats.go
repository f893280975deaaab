package store

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"replybot/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath       string         `json:"db_path"`
	DBSizeBytes  int64          `json:"db_size_bytes"`
	Users        int            `json:"users"`
	Rules        int            `json:"rules"`
	Interactions int            `json:"interactions"`
	Handlers     []HandlerStats `json:"handlers,omitempty"`
	TopRules     []RuleStats    `json:"top_rules,omitempty"`
}

// HandlerStats counts interactions per pipeline handler.
type HandlerStats struct {
	Handler string `json:"handler"`
	Count   int    `json:"count"`
}

// RuleStats describes one trained rule and how often it has fired.
type RuleStats struct {
	Identity   string `json:"identity"`
	Trigger    string `json:"trigger"`
	UsageCount int    `json:"usage_count"`
}

const topRulesLimit = 10

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Users)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&st.Interactions)

	rows, err := s.db.QueryContext(ctx, `
		SELECT handler, COUNT(*) as cnt
		FROM interactions
		GROUP BY handler ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var hs HandlerStats
		rows.Scan(&hs.Handler, &hs.Count)
		st.Handlers = append(st.Handlers, hs)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	// Rules live inside the per-user JSON column, so counting and ranking
	// them means decoding each rule set.
	ruleRows, err := s.db.QueryContext(ctx, `SELECT identity, reply_rules FROM users`)
	if err != nil {
		return st, err
	}
	defer ruleRows.Close()

	var top []RuleStats
	for ruleRows.Next() {
		var identity, rulesJSON string
		if err := ruleRows.Scan(&identity, &rulesJSON); err != nil {
			continue
		}
		var rules map[string]model.ReplyRule
		if err := json.Unmarshal([]byte(rulesJSON), &rules); err != nil {
			continue
		}
		st.Rules += len(rules)
		for _, r := range rules {
			top = append(top, RuleStats{Identity: identity, Trigger: r.Trigger, UsageCount: r.UsageCount})
		}
	}
	if err := ruleRows.Err(); err != nil {
		return st, err
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].UsageCount != top[j].UsageCount {
			return top[i].UsageCount > top[j].UsageCount
		}
		return top[i].Trigger < top[j].Trigger
	})
	if len(top) > topRulesLimit {
		top = top[:topRulesLimit]
	}
	st.TopRules = top

	return st, nil
}
