package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlanExists  = errors.New("plan already exists")
	ErrInvalidName = errors.New("invalid plan name")
)

// PlanContent carries the artifacts of one generated plan: the rendered
// migrator operation text and its SQL translation for the target dialect.
type PlanContent struct {
	Forward     string
	Rollback    string
	ForwardSQL  string
	RollbackSQL string
}

// PlanRecord describes a generated migration plan stored on disk.
type PlanRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Dialect         string    `json:"dialect"`
	ForwardFile     string    `json:"forward_file"`
	RollbackFile    string    `json:"rollback_file,omitempty"`
	ForwardSQLFile  string    `json:"forward_sql_file"`
	RollbackSQLFile string    `json:"rollback_sql_file,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Checksum        string    `json:"checksum"`
}

// EnsureBase makes sure the storage root exists.
func EnsureBase(base string) error {
	return os.MkdirAll(filepath.Join(base, "plans"), 0o755)
}

// StorePlan writes one plan into storage under the given name. Names are
// unique; storing over an existing plan is an error.
func StorePlan(base, name, dialect string, content PlanContent, description string) (PlanRecord, error) {
	dirName, err := safeName(name)
	if err != nil {
		return PlanRecord{}, err
	}
	dir := filepath.Join(base, "plans", dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return PlanRecord{}, err
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if _, err := os.Stat(manifestPath); err == nil {
		return PlanRecord{}, fmt.Errorf("plan %s: %w", name, ErrPlanExists)
	}

	record := PlanRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Dialect:     dialect,
		CreatedAt:   time.Now().UTC(),
		Checksum:    computeChecksum(content.Forward, content.Rollback, content.ForwardSQL, content.RollbackSQL),
	}

	files := []struct {
		name    string
		body    string
		target  *string
		require bool
	}{
		{"forward.plan", content.Forward, &record.ForwardFile, true},
		{"rollback.plan", content.Rollback, &record.RollbackFile, false},
		{"forward.sql", content.ForwardSQL, &record.ForwardSQLFile, true},
		{"rollback.sql", content.RollbackSQL, &record.RollbackSQLFile, false},
	}
	for _, f := range files {
		if f.body == "" && !f.require {
			continue
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.body), 0o644); err != nil {
			return PlanRecord{}, fmt.Errorf("write %s: %w", f.name, err)
		}
		*f.target = path
	}

	if err := writeJSON(manifestPath, record); err != nil {
		return PlanRecord{}, err
	}
	return record, nil
}

// LoadPlan reads a stored plan record with its artifact contents.
func LoadPlan(base, name string) (PlanRecord, PlanContent, error) {
	record, err := LoadManifest(base, name)
	if err != nil {
		return record, PlanContent{}, err
	}

	var content PlanContent
	reads := []struct {
		path   string
		target *string
	}{
		{record.ForwardFile, &content.Forward},
		{record.RollbackFile, &content.Rollback},
		{record.ForwardSQLFile, &content.ForwardSQL},
		{record.RollbackSQLFile, &content.RollbackSQL},
	}
	for _, rd := range reads {
		if rd.path == "" {
			continue
		}
		data, err := os.ReadFile(rd.path)
		if err != nil {
			return record, PlanContent{}, fmt.Errorf("read plan artifact: %w", err)
		}
		*rd.target = string(data)
	}
	return record, content, nil
}

// LoadManifest reads plan metadata without loading artifact bodies.
func LoadManifest(base, name string) (PlanRecord, error) {
	var record PlanRecord
	dirName, err := safeName(name)
	if err != nil {
		return record, err
	}
	manifestPath := filepath.Join(base, "plans", dirName, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return record, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("parse manifest: %w", err)
	}
	return record, nil
}

// ListPlans returns stored plan names.
func ListPlans(base string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(base, "plans"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListPlanRecords returns manifest details for every stored plan.
func ListPlanRecords(base string) ([]PlanRecord, error) {
	names, err := ListPlans(base)
	if err != nil {
		return nil, err
	}
	records := make([]PlanRecord, 0, len(names))
	for _, name := range names {
		rec, err := LoadManifest(base, name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// safeName maps a plan name to its directory name. Anything that could
// resolve outside the plans directory is rejected.
func safeName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

func computeChecksum(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
