package logger

// Standard field keys for structured logging across vaultd. Using these
// consistently keeps log lines greppable and lets log aggregation tools
// pivot on a stable vocabulary.
const (
	// Session & connection
	KeySessionID = "session_id" // per-connection session identifier
	KeyUsername  = "username"   // authenticated username, once bound
	KeyRemoteIP  = "remote_ip"  // client IP address

	// Command & task dispatch
	KeyCommand    = "command"     // UPLOAD, DOWNLOAD, DELETE, LIST, QUIT
	KeyPriority   = "priority"    // HIGH, MEDIUM, LOW
	KeyFilename   = "filename"    // sanitized filename involved in the operation
	KeyTaskState  = "task_state"  // PENDING, IN_PROGRESS, COMPLETED, ERROR
	KeyQueueDepth = "queue_depth" // pending items in a queue at the time of logging

	// I/O
	KeyBytes = "bytes" // byte count transferred

	// Pool identity
	KeyHandlerID = "handler_id" // index of the handler goroutine
	KeyWorkerID  = "worker_id"  // index of the worker goroutine

	// Operation metadata
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message

	// Process lifecycle
	KeyConfigSource = "config_source" // where startup configuration was loaded from
	KeySignal       = "signal"        // OS signal that triggered shutdown
)
