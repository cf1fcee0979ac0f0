package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

// CrankJournal records what the daemon last did for a pool, so restarts don't repeat work.
type CrankJournal struct {
	PoolID          string    `json:"poolId"`
	LastUpdateEpoch uint64    `json:"lastUpdateEpoch"`
	LastStakeEpoch  uint64    `json:"lastStakeEpoch"`
	LastCrank       time.Time `json:"lastCrank"`
}

func JournalFilename(poolID string) (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	addr, err := sui.ParseAddress(poolID)
	if err != nil {
		return "", err
	}
	// first 8 bytes of the pool id is plenty to keep journals of different pools apart
	cfgPath := filepath.Join(cfgDir, "lisuify", fmt.Sprintf("crank-%x.json", addr[:8]))
	err = os.MkdirAll(filepath.Dir(cfgPath), 0775) // user+group RWX, others RX
	if err != nil {
		return "", fmt.Errorf("error making directory:%s, error:%w", cfgDir, err)
	}
	return cfgPath, nil
}

// LoadCrankJournal loads the journal for poolID, returning an empty one if none is saved yet.
func LoadCrankJournal(poolID string) (*CrankJournal, error) {
	cfgName, err := JournalFilename(poolID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(cfgName)
	if errors.Is(err, os.ErrNotExist) {
		return &CrankJournal{PoolID: sui.NormalizeAddress(poolID)}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var journal CrankJournal
	if err = json.NewDecoder(file).Decode(&journal); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", cfgName, err)
	}
	if !sui.SameAddress(journal.PoolID, poolID) {
		return &CrankJournal{PoolID: sui.NormalizeAddress(poolID)}, nil
	}
	return &journal, nil
}

// SaveCrankJournal saves into a temp file first, replacing the journal only if successfully written.
func SaveCrankJournal(journal *CrankJournal) error {
	cfgName, err := JournalFilename(journal.PoolID)
	if err != nil {
		return err
	}
	temp, err := os.CreateTemp(filepath.Dir(cfgName), filepath.Base(cfgName)+".*")
	if err != nil {
		return err
	}
	err = json.NewEncoder(temp).Encode(journal)
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("error saving crank journal: %w", err)
	}
	if err = temp.Close(); err != nil {
		return err
	}
	if err = os.Rename(temp.Name(), cfgName); err != nil {
		return err
	}
	slog.Debug("crank journal saved", "file", cfgName)
	return nil
}
