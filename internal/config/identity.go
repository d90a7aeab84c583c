package config

// IdentityConfig selects the learner directory implementation
type IdentityConfig struct {
	Provider string `env:"IDENTITY_PROVIDER" envDefault:"static" validate:"oneof=static casdoor"`

	CasdoorEndpoint     string `env:"CASDOOR_ENDPOINT" validate:"required_if=Provider casdoor"`
	CasdoorClientID     string `env:"CASDOOR_CLIENT_ID" validate:"required_if=Provider casdoor"`
	CasdoorClientSecret string `env:"CASDOOR_CLIENT_SECRET"`
	CasdoorCertificate  string `env:"CASDOOR_CERTIFICATE"`
	CasdoorOrganization string `env:"CASDOOR_ORGANIZATION" validate:"required_if=Provider casdoor"`
	CasdoorApplication  string `env:"CASDOOR_APPLICATION"`
}

func loadIdentityConfig() IdentityConfig {
	return IdentityConfig{
		Provider:            getEnv("IDENTITY_PROVIDER", "static"),
		CasdoorEndpoint:     getEnv("CASDOOR_ENDPOINT", ""),
		CasdoorClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
		CasdoorClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
		CasdoorCertificate:  getEnv("CASDOOR_CERTIFICATE", ""),
		CasdoorOrganization: getEnv("CASDOOR_ORGANIZATION", ""),
		CasdoorApplication:  getEnv("CASDOOR_APPLICATION", ""),
	}
}
