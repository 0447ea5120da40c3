package sentinel

var _ error = Error("")

// Error is a string-backed error. Values of this type can be declared with
// const, so exported error values cannot be reassigned by importers. Because
// Error is comparable, errors.Is matches it through %w chains.
type Error string

func (e Error) Error() string {
	return string(e)
}
