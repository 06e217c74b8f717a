package config

const (
	defaultConfigPath          = "~/.config/reel/config.toml"
	defaultStateDir            = "~/.local/share/reel"
	defaultLogDir              = "~/.local/share/reel/logs"
	defaultMimeType            = "video/raw"
	defaultWidth               = 1280
	defaultHeight              = 720
	defaultFrameRate           = 30.0
	defaultColorSpace          = "bt709"
	defaultColorRange          = "limited"
	defaultColorTransfer       = "sdr"
	defaultLateThresholdUs     = -30_000
	defaultVeryLateThresholdUs = -500_000
	defaultForceReleaseGapUs   = 100_000
	defaultQueueCapacity       = 8
	defaultFFprobeBinary       = "ffprobe"
	defaultProbeTimeoutSeconds = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Output: Output{
			MimeType:      defaultMimeType,
			Width:         defaultWidth,
			Height:        defaultHeight,
			FrameRate:     defaultFrameRate,
			ColorSpace:    defaultColorSpace,
			ColorRange:    defaultColorRange,
			ColorTransfer: defaultColorTransfer,
		},
		Release: Release{
			LateThresholdUs:     defaultLateThresholdUs,
			VeryLateThresholdUs: defaultVeryLateThresholdUs,
			ForceReleaseGapUs:   defaultForceReleaseGapUs,
		},
		Graph: Graph{
			QueueCapacity: defaultQueueCapacity,
		},
		Media: Media{
			FFprobeBinary:       defaultFFprobeBinary,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
