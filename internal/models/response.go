package models

// Resp is the envelope every HTTP handler answers with.
type Resp struct {
	OK   bool `json:"ok"`
	Info any  `json:"info,omitempty"`
	Data any  `json:"data,omitempty"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
}

// NewPagination derives page metadata; limit <= 0 is treated as 1.
func NewPagination(page, limit int, total int64) Pagination {
	if limit <= 0 {
		limit = 1
	}
	return Pagination{
		CurrentPage: page,
		PageSize:    limit,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		Total:       total,
	}
}

type InterviewPage struct {
	Interviews []Interview `json:"interviews"`
	Pagination Pagination  `json:"pagination"`
}
