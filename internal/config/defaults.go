package config

const (
	defaultStagingDir      = "~/.local/share/stemstrip/staging"
	defaultLogDir          = "~/.local/share/stemstrip/logs"
	defaultModel           = "htdemucs"
	defaultDevice          = "auto"
	defaultSeparateTimeout = 3600
	defaultUnpackTimeout   = 300
	defaultConvertTimeout  = 600
	defaultRepackTimeout   = 600
	defaultPsarcBin        = "psarc"
	defaultFFmpegBin       = "ffmpeg"
	defaultWw2oggBin       = "ww2ogg"
	defaultRevorbBin       = "revorb"
	defaultWav2wemBin      = "wav2wem"
	defaultDemucsBin       = "demucs"
	defaultShutdownGrace   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNotifyTimeout   = 10
)

// defaultExcludeStems names the stems dropped from the backing track. The
// "other" bucket is where guitar ends up for the four-stem demucs models.
func defaultExcludeStems() []string {
	return []string{"other"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Separation: Separation{
			Model:           defaultModel,
			Device:          defaultDevice,
			ExcludeStems:    defaultExcludeStems(),
			SeparateTimeout: defaultSeparateTimeout,
		},
		Tools: Tools{
			PsarcBin:       defaultPsarcBin,
			FFmpegBin:      defaultFFmpegBin,
			Ww2oggBin:      defaultWw2oggBin,
			RevorbBin:      defaultRevorbBin,
			Wav2wemBin:     defaultWav2wemBin,
			DemucsBin:      defaultDemucsBin,
			UnpackTimeout:  defaultUnpackTimeout,
			ConvertTimeout: defaultConvertTimeout,
			RepackTimeout:  defaultRepackTimeout,
		},
		Workflow: Workflow{
			ShutdownGracePeriod: defaultShutdownGrace,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
