package app

// Repo entity
type Repo struct {
	ID   int64
	Name string
}

// Contributor entity. Before aggregation there is one Contributor per
// (repository, user) pair, after aggregation one per login.
type Contributor struct {
	Login         string
	Contributions int
}

// Credentials are passed to the github client factory as they are.
type Credentials struct {
	Username string
	Token    string
}

// IsZero tells if no credentials were given.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Token == ""
}

// RequestSpec is the input of every strategy run.
type RequestSpec struct {
	Org         string
	Credentials Credentials
}
