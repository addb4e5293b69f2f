package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type envService struct {
}

// NewEnv reads settings from the environment. Unset or malformed values
// fall back to defaults.
func NewEnv() IService {
	return &envService{}
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return getEnvAsInt("MODE_MAX_SHUTDOWN_TIME", 5)
}

// GetDataStore is files or sqlite.
func (svc *envService) GetDataStore() string {
	return strings.ToLower(getEnv("DATA_STORE", "files"))
}

func (svc *envService) GetDataFolder() string {
	return getEnv("DATA_FOLDER", filepath.Join(".", "data"))
}

func (svc *envService) GetRecordingsFolder() string {
	return getEnv("RECORDINGS_FOLDER", filepath.Join(".", "recordings"))
}

func (svc *envService) GetJournalFile() string {
	return getEnv("JOURNAL_FILE", "directions.log")
}

func (svc *envService) GetSnapshots() bool {
	return getEnvAsBool("SNAPSHOTS", false)
}

// GetBroadcastAddress is empty when the websocket broadcast is disabled.
func (svc *envService) GetBroadcastAddress() string {
	return getEnv("BROADCAST_ADDRESS", "")
}

// GetSourceType is camera or file.
func (svc *envService) GetSourceType() string {
	return strings.ToLower(getEnv("SOURCE_TYPE", "camera"))
}

// GetSourceDevice is a device index for cameras or a path for files.
func (svc *envService) GetSourceDevice() string {
	return getEnv("SOURCE_DEVICE", "0")
}

func (svc *envService) GetFrameWidth() int {
	return getEnvAsInt("FRAME_WIDTH", 1280)
}

func (svc *envService) GetFrameHeight() int {
	return getEnvAsInt("FRAME_HEIGHT", 720)
}

// GetFaceDetector is cascade or pigo.
func (svc *envService) GetFaceDetector() string {
	return strings.ToLower(getEnv("FACE_DETECTOR", "cascade"))
}

func (svc *envService) GetFaceCascade() string {
	return getEnv("FACE_CASCADE", filepath.Join("classifiers", "haarcascade_frontalface_default.xml"))
}

func (svc *envService) GetEyeCascade() string {
	return getEnv("EYE_CASCADE", filepath.Join("classifiers", "haarcascade_eye_tree_eyeglasses.xml"))
}

func (svc *envService) GetPigoCascade() string {
	return getEnv("PIGO_CASCADE", filepath.Join("classifiers", "facefinder"))
}

// GetSegmenter is contour or blob.
func (svc *envService) GetSegmenter() string {
	return strings.ToLower(getEnv("SEGMENTER", "contour"))
}

func (svc *envService) GetThreshold() int {
	return getEnvAsInt("THRESHOLD", 25)
}

// GetFrameSkip is the number of frames dropped between processed frames.
func (svc *envService) GetFrameSkip() int {
	return getEnvAsInt("FRAME_SKIP", 0)
}

func (svc *envService) GetAgentPeriodicTimeout() int {
	return getEnvAsInt("AGENT_PERIODIC_TIMEOUT", 30)
}

func (svc *envService) GetStreamerMaxWorkers() int {
	return getEnvAsInt("STREAMER_MAX_WORKERS", 1)
}

func (svc *envService) GetQuizReadingTime() int {
	return getEnvAsInt("QUIZ_READING_TIME", 7)
}

func (svc *envService) GetQuizAnsweringTime() int {
	return getEnvAsInt("QUIZ_ANSWERING_TIME", 5)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
