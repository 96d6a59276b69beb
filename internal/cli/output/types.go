package output

// ComponentInfo describes one discovered component for JSON output.
type ComponentInfo struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	Imports    []string `json:"imports,omitempty"`
	ImportedBy []string `json:"imported_by,omitempty"`
	Root       bool     `json:"root"`
}

// ListOutput is the JSON shape of the list command.
type ListOutput struct {
	Components []ComponentInfo `json:"components"`
	Total      int             `json:"total"`
}

// GraphNode is one component within a graph level.
type GraphNode struct {
	Name       string   `json:"name"`
	Imports    []string `json:"imports,omitempty"`
	ImportedBy []string `json:"imported_by,omitempty"`
}

// GraphLevel groups components that can compile in parallel.
type GraphLevel struct {
	Level      int         `json:"level"`
	Components []GraphNode `json:"components"`
}

// GraphOutput is the JSON shape of the graph command.
type GraphOutput struct {
	Levels          []GraphLevel `json:"levels"`
	TotalComponents int          `json:"total_components"`
	TotalImports    int          `json:"total_imports"`
}

// BuildComponentInfo is one compiled root component in build output.
type BuildComponentInfo struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	ScopeID  string `json:"scope_id"`
	Warnings int    `json:"warnings"`
}

// WarningInfo is one compile warning in JSON output.
type WarningInfo struct {
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// BuildOutput is the JSON shape of the build command.
type BuildOutput struct {
	BuildID    string               `json:"build_id,omitempty"`
	Status     string               `json:"status"`
	Components []BuildComponentInfo `json:"components"`
	Warnings   []WarningInfo        `json:"warnings,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// BuildHistoryEntry is one recorded build in builds output.
type BuildHistoryEntry struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Components  int    `json:"components"`
	Warnings    int    `json:"warnings"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BuildsOutput is the JSON shape of the builds command.
type BuildsOutput struct {
	Builds []BuildHistoryEntry `json:"builds"`
}
