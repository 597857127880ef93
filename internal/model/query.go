package model

// TaskQuery is the normalized selection predicate shared by the read API
// and the notification selector. Malformed inputs degrade to defaults
// instead of failing: an unknown status drops the filter, an unknown
// sort key falls back to creation order.
type TaskQuery struct {
	OwnerID int64
	Status  *string
	Search  string
	SortBy  string
}

// Whitelisted sort keys -> SQL order expressions. Priority sorts by enum
// rank, not alphabetically.
var sortColumns = map[string]string{
	"dueDate":   "due_date NULLS LAST",
	"createdAt": "created_at",
	"priority":  "CASE priority WHEN 'Low' THEN 1 WHEN 'Medium' THEN 2 WHEN 'High' THEN 3 ELSE 2 END",
}

const defaultOrder = "created_at"

func NewTaskQuery(ownerID int64, status, search, sortBy string) TaskQuery {
	q := TaskQuery{OwnerID: ownerID, Search: search, SortBy: sortBy}
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		q.Status = &status
	}
	return q
}

// OrderExpr resolves the sort key through the whitelist. The returned
// expression is always one of the constants above, safe to interpolate.
// Direction is ascending, ties broken by id.
func (q TaskQuery) OrderExpr() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return defaultOrder
}
