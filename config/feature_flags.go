package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the single-transcript
// application. Flags gate whole subsystems so a deployment can run
// without the planner, the advisory client, or the background archive
// while the rest of the editing loop keeps working.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// Predefined feature flag names.
const (
	// === Planner Features ===
	FeaturePlanner           = "planner.enabled"    // What-if planner endpoints
	FeaturePlannerProjection = "planner.projection" // Projection read model

	// === Advisory Features ===
	FeatureAdvisory = "advisory.suggestions" // External focus suggestions

	// === Persistence Features ===
	FeatureAutosave = "persistence.autosave" // Snapshot after every mutation
	FeatureArchive  = "persistence.archive"  // Scheduled aggregate archiving
	FeatureHistory  = "persistence.history"  // History read endpoint
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Planner features - core to the product, enabled by default
	ff.features[FeaturePlanner] = &Feature{
		Name:        FeaturePlanner,
		Description: "What-if planner editing endpoints",
		Enabled:     true,
	}

	ff.features[FeaturePlannerProjection] = &Feature{
		Name:        FeaturePlannerProjection,
		Description: "Projected CGPA read model",
		Enabled:     true,
	}

	// Advisory depends on an external service, still on by default;
	// the client degrades gracefully when the service is down.
	ff.features[FeatureAdvisory] = &Feature{
		Name:        FeatureAdvisory,
		Description: "External focus suggestions",
		Enabled:     true,
	}

	// Persistence features
	ff.features[FeatureAutosave] = &Feature{
		Name:        FeatureAutosave,
		Description: "Snapshot the transcript after every mutation",
		Enabled:     true,
	}

	ff.features[FeatureArchive] = &Feature{
		Name:        FeatureArchive,
		Description: "Scheduled archiving of transcript aggregates",
		Enabled:     true,
	}

	ff.features[FeatureHistory] = &Feature{
		Name:        FeatureHistory,
		Description: "Aggregate history read endpoint",
		Enabled:     true,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false
// Example: FEATURE_ADVISORY_SUGGESTIONS=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "planner.enabled" -> "FEATURE_PLANNER_ENABLED"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	return true
}

// EnableFeature enables a feature. Thread-safe for live updates.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.setEnabled(featureName, true)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.setEnabled(featureName, false)
}

func (ff *FeatureFlags) setEnabled(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	feature.Enabled = enabled
	return nil
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// PlannerEnabled checks if the planner surface should be exposed.
func (ff *FeatureFlags) PlannerEnabled() bool {
	return ff.IsEnabled(FeaturePlanner)
}

// PersistenceEnabled checks if any persistence feature is active.
func (ff *FeatureFlags) PersistenceEnabled() bool {
	return ff.IsEnabled(FeatureAutosave) ||
		ff.IsEnabled(FeatureArchive) ||
		ff.IsEnabled(FeatureHistory)
}

// --- Errors ---

var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
