package tool

// Overrides holds runtime overrides from CLI flags. Zero values leave the config untouched.
type Overrides struct {
	Log             string
	ConfigPath      string
	Host            string
	TargetReceiver  string
	CredentialStore string
	NotifyURL       string
	ControlPort     int
	UseHTTPS        bool
	UseMDNS         bool
}

// Apply merges the overrides into cfg.
func (o Overrides) Apply(cfg *AppConfig) {
	if o.Host != "" {
		cfg.Host = o.Host
	}
	if o.TargetReceiver != "" {
		cfg.TargetReceiver = o.TargetReceiver
	}
	if o.CredentialStore != "" {
		cfg.CredentialStore = o.CredentialStore
	}
	if o.NotifyURL != "" {
		cfg.NotifyURL = o.NotifyURL
	}
	if o.ControlPort > 0 {
		cfg.ControlPort = o.ControlPort
	}
	if o.UseHTTPS {
		cfg.ControlProtocol = "https"
	}
	if o.UseMDNS {
		cfg.UseMDNS = true
	}
}
