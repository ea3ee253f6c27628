package ports

// Publisher exposes the result of an invocation to the CI runner.
//
//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks
type Publisher interface {
	// AddPath prepends dir to the search path of subsequent steps.
	AddPath(dir string) error
	// SetOutput records a named step output.
	SetOutput(name, value string) error
}
