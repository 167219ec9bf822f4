package cfg

type Cfg struct {
	// Application configuration
	Port         string
	BaseUrl      string
	FetchTimeout int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
