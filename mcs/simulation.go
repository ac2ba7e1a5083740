package mcs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// On-disk layout of a simulation directory.
const (
	TrialDataCSV  = "trial_data.csv"
	ResultsCSV    = "results.csv"
	FailuresCSV   = "failures.csv"
	ModelFileName = "merged_model.yaml"
	MetadataFile  = "metadata.json"
)

// DefaultDigits is the rounding precision for result metrics.
const DefaultDigits = 3

// Metadata describes a simulation directory. Written once at creation and
// read back verbatim; changing the trial count or field set means recreating
// the directory.
type Metadata struct {
	AnalysisName string   `json:"analysis_name"`
	Trials       int      `json:"trials"`
	FieldNames   []string `json:"field_names"` // nil => all fields in the analysis
}

// SimConfig carries the collaborators and tuning knobs a Simulation needs.
type SimConfig struct {
	Loader    ModelLoader // required
	Evaluator Evaluator   // required to run trials
	Registry  *Registry   // required to generate trial data
	Seed      int64       // sampling seed; same seed, same trial tables
	Digits    int         // metric rounding digits (0 => DefaultDigits)
}

func (cfg SimConfig) digits() int {
	if cfg.Digits == 0 {
		return DefaultDigits
	}
	return cfg.Digits
}

// Simulation owns the file and directory structure of a Monte Carlo
// simulation. The top-level directory contains metadata.json and the cached
// merged model template; each field gets a subdirectory with its
// trial_data.csv, results.csv and failures.csv, created on first write.
type Simulation struct {
	Dir  string
	Meta Metadata

	cfg       SimConfig
	template  []byte // cached serialized model, read once, never mutated
	model     Model
	trialData map[string]*TrialTable
	rng       *PartitionedRNG
}

// NewSimulation creates the simulation directory: it merges the model files
// into a cached template stored alongside metadata.json, so every trial (and
// every distributed worker) instantiates the same model even if the source
// files change while the simulation is running.
//
// An existing directory is a UserError unless overwrite is set, in which case
// it is purged and recreated. fieldNames nil means all enabled fields in the
// analysis. When trials > 0 and a registry is configured, trial data is
// generated immediately.
func NewSimulation(simDir string, modelFiles []string, analysisName string, trials int,
	fieldNames []string, overwrite bool, cfg SimConfig) (*Simulation, error) {

	if cfg.Loader == nil {
		return nil, Systemf("simulation requires a model loader")
	}
	if trials < 0 {
		return nil, Userf("trial count must be non-negative, got %d", trials)
	}

	if _, err := os.Lstat(simDir); err == nil {
		if !overwrite {
			return nil, Userf("directory %q already exists. Use overwrite=true to replace it.", simDir)
		}
		if err := os.RemoveAll(simDir); err != nil {
			return nil, Systemf("remove %q: %v", simDir, err)
		}
	}
	if err := os.MkdirAll(simDir, 0o755); err != nil {
		return nil, Systemf("create %q: %v", simDir, err)
	}

	template, err := cfg.Loader.Merge(modelFiles)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		Dir:       simDir,
		cfg:       cfg,
		template:  template,
		trialData: make(map[string]*TrialTable),
		rng:       NewPartitionedRNG(NewSamplingKey(cfg.Seed)),
	}

	if err := os.WriteFile(sim.ModelFilePath(), template, 0o644); err != nil {
		return nil, Systemf("write model template %q: %v", sim.ModelFilePath(), err)
	}

	if err := sim.loadModel(analysisName, fieldNames); err != nil {
		return nil, err
	}
	if fieldNames == nil {
		fieldNames = sim.model.FieldNames()
	}

	sim.Meta = Metadata{AnalysisName: analysisName, Trials: trials, FieldNames: fieldNames}
	if err := sim.saveMetadata(); err != nil {
		return nil, err
	}

	if trials > 0 && cfg.Registry != nil {
		if err := sim.Generate(nil); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// ReadMetadata reads only metadata.json, for lightweight inspection of a
// simulation directory without loading the model.
func ReadMetadata(simDir string) (Metadata, error) {
	path := filepath.Join(simDir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, Userf("failed to load simulation %q: %v", path, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, Userf("failed to load simulation %q: %v", path, err)
	}
	return meta, nil
}

// LoadSimulation opens an existing simulation directory for running trials:
// it reads the metadata, caches the model template, and instantiates the
// model. fieldNames, when non-nil, restricts the run to a subset of the
// fields recorded in the metadata; a name not present there is a UserError.
//
// If the metadata calls for trials but no trial data exists yet and a
// registry is configured, trial data is generated.
func LoadSimulation(simDir string, fieldNames []string, cfg SimConfig) (*Simulation, error) {
	if cfg.Loader == nil {
		return nil, Systemf("simulation requires a model loader")
	}

	meta, err := ReadMetadata(simDir)
	if err != nil {
		return nil, err
	}

	if fieldNames != nil {
		known := make(map[string]bool, len(meta.FieldNames))
		for _, name := range meta.FieldNames {
			known[name] = true
		}
		// Preserve metadata order rather than request order.
		requested := make(map[string]bool, len(fieldNames))
		for _, name := range fieldNames {
			if !known[name] {
				return nil, Userf("field %q is not part of simulation %q", name, simDir)
			}
			requested[name] = true
		}
		subset := make([]string, 0, len(fieldNames))
		for _, name := range meta.FieldNames {
			if requested[name] {
				subset = append(subset, name)
			}
		}
		meta.FieldNames = subset
	}

	sim := &Simulation{
		Dir:       simDir,
		Meta:      meta,
		cfg:       cfg,
		trialData: make(map[string]*TrialTable),
		rng:       NewPartitionedRNG(NewSamplingKey(cfg.Seed)),
	}

	logrus.Debugf("Caching model template %q", sim.ModelFilePath())
	sim.template, err = os.ReadFile(sim.ModelFilePath())
	if err != nil {
		return nil, Systemf("failed to read model template %q: %v", sim.ModelFilePath(), err)
	}

	if err := sim.loadModel(meta.AnalysisName, meta.FieldNames); err != nil {
		return nil, err
	}

	if err := sim.checkTrialData(); err != nil {
		return nil, err
	}
	if sim.Meta.Trials > 0 && cfg.Registry != nil && !sim.hasTrialData() {
		if err := sim.Generate(nil); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// loadModel instantiates a fresh model from the cached template and keeps it
// for field listing and trial-data generation. The trial runner does not use
// this instance; it loads its own per trial.
func (s *Simulation) loadModel(analysisName string, fieldNames []string) error {
	model, err := s.cfg.Loader.Load(s.template, analysisName, fieldNames)
	if err != nil {
		return err
	}
	s.model = model
	return nil
}

// checkTrialData verifies that any trial data already on disk matches the
// metadata trial count. Caught at load time, before any sampling or
// execution.
func (s *Simulation) checkTrialData() error {
	for _, name := range s.Meta.FieldNames {
		path := s.TrialDataPath(name, false)
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		table, err := ReadTrialTable(path)
		if err != nil {
			return err
		}
		if table.Trials() != s.Meta.Trials {
			return Userf("trial data %q has %d trials; metadata says %d",
				path, table.Trials(), s.Meta.Trials)
		}
		s.trialData[name] = table
	}
	return nil
}

func (s *Simulation) hasTrialData() bool {
	return len(s.trialData) > 0
}

func (s *Simulation) saveMetadata() error {
	data, err := json.MarshalIndent(s.Meta, "", "  ")
	if err != nil {
		return Systemf("marshal metadata: %v", err)
	}
	if err := os.WriteFile(s.MetadataPath(), data, 0o644); err != nil {
		return Systemf("write metadata %q: %v", s.MetadataPath(), err)
	}
	return nil
}

// === Path accessors ===
//
// Pure functions of (directory, field name). Field subdirectories are
// created lazily, on first write, so accessors take a mkdir flag.

// FieldDir returns the subdirectory for the named field.
func (s *Simulation) FieldDir(fieldName string) string {
	return filepath.Join(s.Dir, fieldName)
}

// TrialDataPath returns the field's trial_data.csv path.
func (s *Simulation) TrialDataPath(fieldName string, mkdir bool) string {
	return s.fieldPath(fieldName, TrialDataCSV, mkdir)
}

// ResultsPath returns the field's results.csv path.
func (s *Simulation) ResultsPath(fieldName string, mkdir bool) string {
	return s.fieldPath(fieldName, ResultsCSV, mkdir)
}

// FailuresPath returns the field's failures.csv path.
func (s *Simulation) FailuresPath(fieldName string) string {
	return s.fieldPath(fieldName, FailuresCSV, false)
}

// MetadataPath returns the metadata.json path.
func (s *Simulation) MetadataPath() string {
	return filepath.Join(s.Dir, MetadataFile)
}

// ModelFilePath returns the cached model template path.
func (s *Simulation) ModelFilePath() string {
	return filepath.Join(s.Dir, ModelFileName)
}

func (s *Simulation) fieldPath(fieldName, filename string, mkdir bool) string {
	dir := s.FieldDir(fieldName)
	if mkdir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Errorf("mkdir %q: %v", dir, err)
		}
	}
	return filepath.Join(dir, filename)
}

// === Trial data generation ===

// Generate draws the trial tables for every chosen field from the configured
// registry's distributions and persists them.
//
// Per field: distributions are taken in registry order; a parameter the field
// has pinned to an explicit value is excluded from sampling (the same
// distribution may be sampled for one field and skipped for another). A field
// left with zero sampled columns is a UserError, since a Monte Carlo run
// needs at least one free parameter. corr, when non-nil, is the rank correlation to
// induce across the sampled columns.
func (s *Simulation) Generate(corr *mat.SymDense) error {
	if s.cfg.Registry == nil {
		return Systemf("trial generation requires a distribution registry")
	}

	trials := s.Meta.Trials
	for _, fieldName := range s.Meta.FieldNames {
		field, err := s.model.GetField(fieldName)
		if err != nil {
			return err
		}

		var cols []string
		var rvs []RandomVar
		for _, dist := range s.cfg.Registry.Distributions() {
			attr, err := s.model.ResolveAttribute(field, dist.Name)
			if err != nil {
				return err
			}

			// An explicit value on the field overrides the distribution.
			if attr.Explicit() {
				logrus.Debugf("%s has an explicit value for %q; ignoring distribution",
					fieldName, dist.Name.Attr)
				continue
			}

			cols = append(cols, dist.Name.Column())
			rvs = append(rvs, dist.RV)
		}

		if len(cols) == 0 {
			return Userf("can't run MCS: all parameters with distributions have explicit values in %q", fieldName)
		}

		rows, err := LHSCorrelated(rvs, trials, corr, s.rng.ForSubsystem(FieldSubsystem(fieldName)))
		if err != nil {
			return err
		}

		table := NewTrialTable(cols, rows)
		s.trialData[fieldName] = table

		path := s.TrialDataPath(fieldName, true)
		logrus.Infof("Writing %q", path)
		if err := table.WriteCSV(path); err != nil {
			return err
		}
	}
	return nil
}

// fieldTrialData returns the field's trial table, reading it from disk on
// first use and caching it.
func (s *Simulation) fieldTrialData(fieldName string) (*TrialTable, error) {
	if table, ok := s.trialData[fieldName]; ok {
		return table, nil
	}
	table, err := ReadTrialTable(s.TrialDataPath(fieldName, false))
	if err != nil {
		return nil, err
	}
	s.trialData[fieldName] = table
	return table, nil
}
