package port

// QueryValidator validates benchmark SQL before it is accepted into a catalog.
type QueryValidator interface {
	Validate(sql string) error
}
