package config

const (
	defaultStateDir            = "~/.local/share/toneexport"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultVideoCodec          = "libx264"
	defaultPreset              = "veryfast"
	defaultCRF                 = 23
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultAudioSampleRate     = 44100
	defaultPixelFormat         = "yuv420p"
	defaultMaxRedirects        = 20
	defaultUserAgent           = "toneexport/dev"
	defaultCacheMaxGiB         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultScratchStaleHours   = 24
	defaultHistoryDatabaseName = "history.db"
	defaultCacheDirName        = "cache"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Encoding: Encoding{
			VideoCodec:      defaultVideoCodec,
			Preset:          defaultPreset,
			CRF:             defaultCRF,
			AudioCodec:      defaultAudioCodec,
			AudioBitrate:    defaultAudioBitrate,
			AudioSampleRate: defaultAudioSampleRate,
			PixelFormat:     defaultPixelFormat,
		},
		Download: Download{
			MaxRedirects: defaultMaxRedirects,
			UserAgent:    defaultUserAgent,
		},
		Cache: Cache{
			Enabled: false,
			MaxGiB:  defaultCacheMaxGiB,
		},
		History: History{
			Enabled: true,
		},
		Scratch: Scratch{
			StaleHours: defaultScratchStaleHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
