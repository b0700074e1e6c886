package core

// DBOrdering is one ordering term of a repository query, parsed from the API's
// "ordering" query parameter.
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
