package errors

// EntityError is an error about one identified thing, e.g. an object
// path or a connection alias.
type EntityError interface {
	error
	EntityIdentifier() string
}

func Ent(entityIdentifier string, err error) EntityError {
	return &entityError{id: entityIdentifier, err: err}
}

func EntMsg(entityIdentifier string, errMsg string) EntityError {
	return Ent(entityIdentifier, Msg(errMsg))
}

func IsEntityError(err error) bool {
	var e EntityError
	return As(err, &e)
}

type entityError struct {
	id  string
	err error
}

var (
	_ Unwrappable = &entityError{}
	_ EntityError = &entityError{}
)

func (e *entityError) Error() string {
	switch {
	case e.err == nil && e.id == "":
		return "invalid entity"
	case e.err == nil:
		return e.id + " invalid"
	case e.id == "":
		return "entity " + e.err.Error()
	}
	return e.id + ": " + e.err.Error()
}

func (e *entityError) Unwrap() error { return e.err }

func (e *entityError) EntityIdentifier() string { return e.id }
