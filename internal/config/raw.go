package config

// RawConfig mirrors Config with optional fields so that an explicit zero value
// in the file can be told apart from an absent key.
type RawConfig struct {
	Backend        *string            `yaml:"backend"`
	Display        *string            `yaml:"display"`
	XAuthority     *string            `yaml:"xauthority"`
	OwnerThread    *string            `yaml:"owner_thread"`
	StrictAffinity *bool              `yaml:"strict_affinity"`
	Allocator      *string            `yaml:"allocator"`
	Screens        *[]RawScreenConfig `yaml:"screens"`
	Logging        *RawLoggingConfig  `yaml:"logging"`
	IPC            *RawIPCConfig      `yaml:"ipc"`
}

type RawScreenConfig struct {
	Name    string `yaml:"name"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Primary bool   `yaml:"primary"`
}

type RawLoggingConfig struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

type RawIPCConfig struct {
	Socket *string `yaml:"socket"`
}
