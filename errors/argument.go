package errors

// CallError marks errors caused by the caller rather than by storage.
type CallError interface {
	error
	CallError()
}

func IsCallError(err error) bool {
	var c CallError
	return As(err, &c)
}

// ArgumentError is returned when a caller passes an argument which can not
// be used at all, e.g. an empty path. These are never recorded as operation
// failures.
type ArgumentError interface {
	CallError
	ArgumentName() string
}

func Arg(argName string, err error, fields ...EntityError) error {
	return &argumentError{entityError{id: argName, err: err}, fields}
}

func ArgMsg(argName, errMsg string, fields ...EntityError) error {
	return Arg(argName, Msg(errMsg), fields...)
}

func ArgWrap(argName, contextMessage string, err error, fields ...EntityError) error {
	return Arg(argName, Wrap(contextMessage, err), fields...)
}

// IsArgument reports whether err is, or wraps, an ArgumentError.
func IsArgument(err error) bool {
	var argErr ArgumentError
	return As(err, &argErr)
}

type argumentError struct {
	entityError
	fields []EntityError
}

var (
	_ Unwrappable   = &argumentError{}
	_ EntityError   = &argumentError{}
	_ ArgumentError = &argumentError{}
)

func (e *argumentError) ArgumentName() string { return e.id }

// Fields lists the offending parts of a structured argument.
func (e *argumentError) Fields() []EntityError { return e.fields }

func (*argumentError) CallError() {}

func (e *argumentError) Error() string {
	return "arg " + e.entityError.Error()
}
