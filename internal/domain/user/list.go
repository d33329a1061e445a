package user

// ListFilter shapes a paginated listing. Start/End are half-open offsets
// into the sorted result; CreatedBy, when set, restricts rows to the
// records created by that user (admin scoping).
type ListFilter struct {
	Start     int
	End       int
	Sort      string
	Order     string
	CreatedBy *string
}

func (f ListFilter) Limit() int {
	n := f.End - f.Start
	if n <= 0 {
		return 0
	}

	return n
}
