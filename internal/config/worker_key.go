package config

// WorkerKeyStruct names the Redis lists consumed by background workers.
type WorkerKeyStruct struct {
	PersistDraftsQueue  string
	PersistProctorQueue string
	RegradeQueue        string
}

// WorkerKey is the shared queue-name catalog.
var WorkerKey = &WorkerKeyStruct{
	PersistDraftsQueue:  "persist_drafts_queue",
	PersistProctorQueue: "persist_proctor_queue",
	RegradeQueue:        "regrade_queue",
}
