package domain

// Intent is the handling path chosen for an incoming message.
type Intent string

const (
	IntentFilesystem Intent = "filesystem"
	IntentTime       Intent = "time"
	IntentURL        Intent = "url"
	IntentChat       Intent = "chat"
)

// Tool names understood by the gateway.
const (
	ToolFetch      = "fetch"
	ToolTime       = "time"
	ToolFilesystem = "filesystem"
)

// Filesystem operations.
const (
	OpListDirectory = "list_directory"
	OpReadFile      = "read_file"
	OpWriteFile     = "write_file"
	OpSearchFiles   = "search_files"
	OpGetFileInfo   = "get_file_info"
)
