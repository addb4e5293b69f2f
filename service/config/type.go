package config

type IService interface {
	GetModeMaxShutdownTime() int
	GetDataStore() string
	GetDataFolder() string
	GetRecordingsFolder() string
	GetJournalFile() string
	GetSnapshots() bool
	GetBroadcastAddress() string

	GetSourceType() string
	GetSourceDevice() string
	GetFrameWidth() int
	GetFrameHeight() int

	GetFaceDetector() string
	GetFaceCascade() string
	GetEyeCascade() string
	GetPigoCascade() string
	GetSegmenter() string
	GetThreshold() int
	GetFrameSkip() int

	GetAgentPeriodicTimeout() int
	GetStreamerMaxWorkers() int

	GetQuizReadingTime() int
	GetQuizAnsweringTime() int
}
