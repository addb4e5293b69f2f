package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/config"
)

// filesDBService keeps one JSON array file per entity kind in the data folder.
type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) NewSession(rec model.SessionRecord) error {
	return newEntity(svc, rec, "sessions")
}

func (svc *filesDBService) RetrieveSessions() ([]model.SessionRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveEntities[model.SessionRecord](svc.CfgSvc.GetDataFolder(), "sessions")
}

func (svc *filesDBService) NewError(err interface{}) error {
	return newEntity(svc, toErrorRecord(err, time.Now().Unix()), "errors")
}

func (svc *filesDBService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, stats, "agent-stats")
}

func (svc *filesDBService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, stats, "framer-stats")
}

func (svc *filesDBService) NewStreamerStats(stats model.StreamerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, stats, "streamer-stats")
}

func (svc *filesDBService) NewReporterStats(stats model.ReporterStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, stats, "reporter-stats")
}

func (svc *filesDBService) Close() error {
	return nil
}

func newEntity[T any](svc *filesDBService, entity T, filename string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	folder := svc.CfgSvc.GetDataFolder()
	entities, err := retrieveEntities[T](folder, filename)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return xerrors.Errorf("marshal %s: %w", filename, err)
	}

	err = os.MkdirAll(folder, 0755)
	if err != nil {
		return xerrors.Errorf("create data folder: %w", err)
	}

	// Write the JSON data to the file (with truncation)
	err = os.WriteFile(entityPath(folder, filename), data, 0644)
	if err != nil {
		return xerrors.Errorf("write %s: %w", filename, err)
	}

	return nil
}

func retrieveEntities[T any](folder, filename string) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityPath(folder, filename))
	if os.IsNotExist(err) {
		return entities, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("read %s: %w", filename, err)
	}

	err = json.Unmarshal(data, &entities)
	if err != nil {
		return nil, xerrors.Errorf("unmarshal %s: %w", filename, err)
	}

	return entities, nil
}

func entityPath(folder, filename string) string {
	return filepath.Join(folder, filename+".json")
}
