package logmining

type Config struct {
	LogsBucket string `conf:"LOGS_BUCKET" default:"nakomis-cf-access-logs"`
	LogsPrefix string `conf:"LOGS_PREFIX" default:"cf-logs/"`

	DefaultDays int `conf:"DEFAULT_DAYS" default:"7"`

	HighVolumeThreshold int `conf:"HIGH_VOLUME_THRESHOLD" default:"500"`
	MinUnflaggedVolume  int `conf:"MIN_UNFLAGGED_VOLUME" default:"100"`
	MaxSuspects         int `conf:"MAX_SUSPECTS" default:"50"`
}
