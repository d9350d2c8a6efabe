package model

// Filter codes accepted by the control list endpoint. 0 lists everything.
const (
	FilterNone      = 0
	FilterPending   = 1
	FilterFetched   = 2
	FilterUploaded  = 3
	FilterFailed    = 4
	FilterCancelled = 5
)

// PageQuery is the body of a list request.
type PageQuery struct {
	Page       int `json:"page"`
	FilterType int `json:"filter_type"`
}

// Normalize clamps negative page indices and filter codes to 0.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.FilterType < 0 {
		q.FilterType = FilterNone
	}
	return q
}

// PageResult is one page of commands plus the total page count.
type PageResult struct {
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Commands []Command `json:"commands"`
}

// QueueRequest asks the server to queue a new capture.
type QueueRequest struct {
	Target   int64 `json:"target" validate:"gte=0"`
	Position int64 `json:"position" validate:"oneof=1 2 3"`
	KeyID    int64 `json:"associated_key_id" validate:"gt=0"`
}

// FilterStatuses returns the statuses a filter code selects, nil for
// FilterNone, and false when the code is unknown.
func FilterStatuses(code int) ([]Status, bool) {
	switch code {
	case FilterNone:
		return nil, true
	case FilterPending:
		return []Status{StatusPending}, true
	case FilterFetched:
		return []Status{StatusFetched}, true
	case FilterUploaded:
		return []Status{StatusUploaded}, true
	case FilterFailed:
		return []Status{StatusFailed, StatusUploadFailed, StatusInternal}, true
	case FilterCancelled:
		return []Status{StatusCancelled}, true
	}
	return nil, false
}
