package mcs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// TrialsDirName is the subdirectory holding per-trial sandboxes for
// distributed execution.
const TrialsDirName = "trials"

// MaxTrials bounds the two-level trial directory layout.
const MaxTrials = 1_000_000

// TrialDir returns the per-trial sandbox directory for distributed or
// parallel execution. The trial number is split into two 3-digit levels,
// so trial 1423 lands in trials/001/423: no directory ever holds more than
// 1000 entries, up to a million trials.
func TrialDir(simDir string, trialNum int) (string, error) {
	if trialNum < 0 || trialNum >= MaxTrials {
		return "", Systemf("trial number %d is outside the supported range [0, %d)", trialNum, MaxTrials)
	}
	upper := fmt.Sprintf("%03d", trialNum/1000)
	lower := fmt.Sprintf("%03d", trialNum%1000)
	return filepath.Join(simDir, TrialsDirName, upper, lower), nil
}

// MakeTrialDir creates (if needed) and returns the per-trial sandbox.
func MakeTrialDir(simDir string, trialNum int) (string, error) {
	dir, err := TrialDir(simDir, trialNum)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", Systemf("create trial dir %q: %v", dir, err)
	}
	return dir, nil
}

// ParseTrialDir recovers the trial number from a per-trial sandbox path.
func ParseTrialDir(path string) (int, error) {
	lower := filepath.Base(path)
	upper := filepath.Base(filepath.Dir(path))
	if len(upper) != 3 || len(lower) != 3 {
		return 0, Systemf("%q is not a trial directory", path)
	}
	hi, err := strconv.Atoi(upper)
	if err != nil {
		return 0, Systemf("%q is not a trial directory", path)
	}
	lo, err := strconv.Atoi(lower)
	if err != nil {
		return 0, Systemf("%q is not a trial directory", path)
	}
	return hi*1000 + lo, nil
}
