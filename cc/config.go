package cc

import (
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every value settable from the command line or an optional
// YAML scenario file (spec.md §6, SPEC_FULL.md §4.M). Explicit flags
// always win over a loaded file's values.
type Config struct {
	Radius         float64 `yaml:"radius"`
	PositionModel  string  `yaml:"positionModel"`
	NumNodes       int     `yaml:"numNodes"`
	SimulationTime float64 `yaml:"simulationTime"` // hours
	ReplyLen       int     `yaml:"replyLen"`
	GridDelta      float64 `yaml:"gridDelta"`
	FileName       string  `yaml:"fileName"`
	NumChannels    int     `yaml:"numChannels"`
	Mode           int     `yaml:"mode"`

	Seed        int64  `yaml:"seed"`
	StartJitter float64 `yaml:"startJitter"`
	LogLevel    string `yaml:"logLevel"`
}

// DefaultConfig matches spec.md §6's defaults plus SPEC_FULL.md's added
// ambient flags.
func DefaultConfig() Config {
	return Config{
		Radius:         20000,
		PositionModel:  "grid",
		NumNodes:       100,
		SimulationTime: 255,
		ReplyLen:       2,
		GridDelta:      2000,
		FileName:       "topology.txt",
		NumChannels:    64,
		Mode:           0,
		Seed:           1,
		StartJitter:    60,
		LogLevel:       "info",
	}
}

// ParseFlags parses args (excluding the program name) into a Config,
// starting from an optional YAML file named by --config and overridden by
// any flag explicitly present in args.
func ParseFlags(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet("cc-sim", pflag.ContinueOnError)
	configPath := fs.String("config", "", "optional YAML scenario file providing defaults")
	radius := fs.Float64("radius", cfg.Radius, "disk allocation radius, meters")
	positionModel := fs.String("positionModel", cfg.PositionModel, `"grid" or "disk"`)
	numNodes := fs.Int("numNodes", cfg.NumNodes, "non-gateway node count")
	simulationTime := fs.Float64("simulationTime", cfg.SimulationTime, "stop time, hours")
	replyLen := fs.Int("replyLen", cfg.ReplyLen, "leaf reply payload length, bytes")
	gridDelta := fs.Float64("gridDelta", cfg.GridDelta, "grid spacing, meters")
	fileName := fs.String("fileName", cfg.FileName, "topology output file path")
	numChannels := fs.Int("numChannels", cfg.NumChannels, "channels available")
	mode := fs.Int("mode", cfg.Mode, "0=FULL 1=static-tx-only 2=proximity-only 3=multi-channel+proximity 4=random-channel+proximity 5=baseline 6..9=parameter sweeps")
	seed := fs.Int64("seed", cfg.Seed, "PRNG seed")
	startJitter := fs.Float64("startJitter", cfg.StartJitter, "max uniform random application-start offset, seconds")
	logLevel := fs.String("logLevel", cfg.LogLevel, "debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, newErr(KindConfigInvalid, err.Error())
	}

	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			return Config{}, newErr(KindConfigInvalid, "reading --config: "+err.Error())
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, newErr(KindConfigInvalid, "parsing --config: "+err.Error())
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "radius":
			cfg.Radius = *radius
		case "positionModel":
			cfg.PositionModel = *positionModel
		case "numNodes":
			cfg.NumNodes = *numNodes
		case "simulationTime":
			cfg.SimulationTime = *simulationTime
		case "replyLen":
			cfg.ReplyLen = *replyLen
		case "gridDelta":
			cfg.GridDelta = *gridDelta
		case "fileName":
			cfg.FileName = *fileName
		case "numChannels":
			cfg.NumChannels = *numChannels
		case "mode":
			cfg.Mode = *mode
		case "seed":
			cfg.Seed = *seed
		case "startJitter":
			cfg.StartJitter = *startJitter
		case "logLevel":
			cfg.LogLevel = *logLevel
		}
	})

	return cfg, cfg.Validate()
}

// Validate checks every field for an in-range value, returning
// ConfigInvalid on the first problem found.
func (c Config) Validate() error {
	switch {
	case c.NumNodes < 0:
		return newErr(KindConfigInvalid, "numNodes must be >= 0")
	case c.NumChannels < 1 || c.NumChannels > 64:
		return newErr(KindConfigInvalid, "numChannels must be in [1,64]")
	case c.ReplyLen < 0:
		return newErr(KindConfigInvalid, "replyLen must be >= 0")
	case c.PositionModel != "grid" && c.PositionModel != "disk":
		return newErr(KindConfigInvalid, `positionModel must be "grid" or "disk"`)
	case c.Mode < 0 || c.Mode > 9:
		return newErr(KindConfigInvalid, "mode must be in [0,9]")
	case c.SimulationTime <= 0:
		return newErr(KindConfigInvalid, "simulationTime must be > 0")
	case c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warn" && c.LogLevel != "error":
		return newErr(KindConfigInvalid, "logLevel must be debug|info|warn|error")
	}
	return nil
}

// modeProfile is the (channel mode, back-off mode, adaptive power) triple
// selected by --mode (spec.md §6). Modes 6-9 are parameter sweeps layered
// on top of the other flags by the operator; they reuse the baseline
// protocol profile.
func (c Config) modeProfile() (ChannelMode, BackoffMode, bool) {
	switch c.Mode {
	case 1: // static-tx-only
		return ChannelAnnouncement, BackoffAdaptive, false
	case 2: // proximity-only
		return SingleChannel, BackoffAdaptive, true
	case 3: // multi-channel+proximity
		return ChannelAnnouncement, BackoffStatic12, true
	case 4: // random-channel+proximity
		return RandomChannel, BackoffAdaptive, true
	case 5, 6, 7, 8, 9: // baseline / parameter sweeps
		return SingleChannel, BackoffStatic3, false
	default: // 0: FULL
		return ChannelAnnouncement, BackoffAdaptive, true
	}
}

// Placement builds the configured PlacementModel.
func (c Config) Placement() PlacementModel {
	if c.PositionModel == "disk" {
		return DiskPlacement{Radius: c.Radius}
	}
	return GridPlacement{Delta: c.GridDelta}
}
