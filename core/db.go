package core

import (
	"fmt"
	"strings"
	"time"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields, a leading "-" meaning descending.
// Fields that are not in allowed are dropped.
func ParseOrdering(raw string, allowed map[string]bool) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || !allowed[field] {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// QueryTime is a time bound from a query parameter, given as RFC 3339 or as a YYYY-MM-DD date (UTC).
type QueryTime struct {
	time.Time
}

func (qt *QueryTime) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, param); err == nil {
			qt.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid time %q, expected RFC 3339 or YYYY-MM-DD", param)
}
