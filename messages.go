package paneprobe

// Error format strings for unknown config type discriminators.
const (
	errUnknownScenarioType = "unknown scenario type: %s"
	errUnknownStorageType  = "unknown storage type: %s"
	errUnknownNotifierType = "unknown notifier type: %s"
)
