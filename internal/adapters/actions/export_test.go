package actions

// WithUUID fixes the delimiter suffix.
func WithUUID(id string) Option {
	return func(p *Publisher) {
		p.newUUID = func() string { return id }
	}
}
