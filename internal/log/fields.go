package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldDBPath    = "db_path"
)

// Components defines standard component names
const (
	ComponentApp = "app"
)
