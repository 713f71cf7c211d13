package model

// params for Flags
type CommandLineFlags struct {
	Config          *string `json:"config"`
	Sources         *string `json:"sources"`
	Output          *string `json:"output"`
	AcceptOverwrite *bool   `json:"accept_overwrite"`
	LogLevel        *string `json:"log_level"`
	LogFormat       *string `json:"log_format"`
}
