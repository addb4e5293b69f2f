package storage

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/service/config"
)

type localService struct {
	CfgSvc config.IService
	now    func() time.Time
}

// NewLocal files stored snapshots under RECORDINGS_FOLDER/<yyyy-mm-dd>/.
func NewLocal(cfgsvc config.IService) IService {
	return &localService{
		CfgSvc: cfgsvc,
		now:    time.Now,
	}
}

func (svc *localService) StoreFile(fileName string) (string, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		return "", xerrors.Errorf("stat %s: %w", fileName, err)
	}
	if info.IsDir() {
		return "", xerrors.Errorf("%s is a directory", fileName)
	}

	folder := filepath.Join(svc.CfgSvc.GetRecordingsFolder(), svc.now().Format("2006-01-02"))
	err = os.MkdirAll(folder, 0755)
	if err != nil {
		return "", xerrors.Errorf("create %s: %w", folder, err)
	}

	target := filepath.Join(folder, filepath.Base(fileName))
	if target == fileName {
		return target, nil
	}

	err = os.Rename(fileName, target)
	if err != nil {
		return "", xerrors.Errorf("move %s: %w", fileName, err)
	}

	return target, nil
}
