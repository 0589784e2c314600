package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"
)

// DiskStorage stores one file per key below RootFolder/Profile. Writes go
// to a temporary file that is renamed into place.
type DiskStorage struct {
	Profile    string
	RootFolder string
}

func NewDiskStorage(profile, rootFolder string) *DiskStorage {
	return &DiskStorage{
		Profile:    profile,
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) GetFileName(key string) (string, string) {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key) + ".json"
	fileName := path.Join(ds.RootFolder, ds.Profile, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}

func (ds *DiskStorage) Get(ctx context.Context, key string) ([]byte, error) {
	fileName, _ := ds.GetFileName(key)
	b, err := os.ReadFile(fileName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (ds *DiskStorage) Set(ctx context.Context, key string, value []byte) error {
	fileName, tmpFileName := ds.GetFileName(key)
	if err := os.MkdirAll(path.Dir(fileName), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmpFileName, value, 0o644); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	if err := os.Rename(tmpFileName, fileName); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return nil
}

func (ds *DiskStorage) Delete(ctx context.Context, key string) error {
	fileName, _ := ds.GetFileName(key)
	if err := os.Remove(fileName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
