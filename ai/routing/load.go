package routing

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/czapol/multi-agent-playground/ai/configloader"
)

// ConfigFile is the optional routing configuration file name.
const ConfigFile = "routing.yaml"

// LoadConfig reads routing.yaml on top of DefaultConfig. A missing file
// yields the defaults.
func LoadConfig(loader *configloader.Loader) (Config, error) {
	cfg := DefaultConfig()
	found, err := loader.LoadOptional(ConfigFile, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to load routing config")
	}
	for _, r := range cfg.Rules {
		if !r.Family.Valid() {
			return Config{}, errors.Errorf("routing rule %q: unknown family %q", r.Name, r.Family)
		}
	}
	slog.Debug("routing config loaded", "file_found", found, "rules", len(cfg.Rules), "follow_ups", len(cfg.FollowUps))
	return cfg.withDefaults(), nil
}
