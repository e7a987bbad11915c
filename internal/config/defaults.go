package config

const (
	defaultLibraryDir    = "~/stills"
	defaultStateDir      = "~/.local/share/stillsync/state"
	defaultLogDir        = "~/.local/share/stillsync/logs"
	defaultTMDBBaseURL   = "https://api.themoviedb.org/3"
	defaultTMDBLanguage  = "zh-CN"
	defaultTMDBRegion    = "CN"
	defaultOrigLanguage  = "zh"
	defaultMTimeBaseURL  = "https://front-gateway.mtime.com"
	defaultMTimePageSize = 20
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	// Matching thresholds are an empirically tuned behavioral contract: 0.6
	// gates whether the secondary title is worth a second query, 0.5 gates
	// whether any result is usable at all.
	defaultAcceptScore      = 0.5
	defaultSecondQueryScore = 0.6
	defaultYearPenalty      = 0.15
	defaultYearTolerance    = 2

	defaultWorkers          = 1 // the image host penalizes concurrency
	defaultRequestTimeout   = 30
	defaultRetryAttempts    = 5
	defaultRetryInitialWait = 10
	defaultRetryMaxWait     = 60
	defaultPacingBase       = 5
	defaultPacingSpread     = 3
	defaultPacingCap        = 30

	defaultFailureThreshold = 5
	defaultCooldownSeconds  = 3600
	defaultPollSeconds      = 5

	defaultMaxPages         = 500
	defaultPageDelaySeconds = 3
	defaultPersistEvery     = 10
	defaultEmptyPageStop    = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:          defaultTMDBBaseURL,
			Language:         defaultTMDBLanguage,
			Region:           defaultTMDBRegion,
			OriginalLanguage: defaultOrigLanguage,
		},
		MTime: MTime{
			BaseURL:   defaultMTimeBaseURL,
			PageSize:  defaultMTimePageSize,
			UserAgent: defaultUserAgent,
		},
		Matching: Matching{
			AcceptScore:      defaultAcceptScore,
			SecondQueryScore: defaultSecondQueryScore,
			YearPenalty:      defaultYearPenalty,
			YearTolerance:    defaultYearTolerance,
		},
		Download: Download{
			Workers:          defaultWorkers,
			RequestTimeout:   defaultRequestTimeout,
			RetryAttempts:    defaultRetryAttempts,
			RetryInitialWait: defaultRetryInitialWait,
			RetryMaxWait:     defaultRetryMaxWait,
			PacingBase:       defaultPacingBase,
			PacingSpread:     defaultPacingSpread,
			PacingCap:        defaultPacingCap,
		},
		Breaker: Breaker{
			FailureThreshold: defaultFailureThreshold,
			CooldownSeconds:  defaultCooldownSeconds,
			PollSeconds:      defaultPollSeconds,
		},
		Scan: Scan{
			MaxPages:         defaultMaxPages,
			PageDelaySeconds: defaultPageDelaySeconds,
			PersistEvery:     defaultPersistEvery,
			EmptyPageStop:    defaultEmptyPageStop,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
