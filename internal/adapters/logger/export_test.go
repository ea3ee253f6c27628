package logger

var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
	EscapeCommandData   = escapeCommandData
)
