package config

import "time"

// Config is the complete server configuration.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Dungeons Dungeons `mapstructure:"dungeons"`
	Log      Log      `mapstructure:"log"`
}

// Server holds the network settings.
type Server struct {
	BindAddress  string        `mapstructure:"bind_address"`
	MaxFrameSize uint32        `mapstructure:"max_frame_size"` // bytes, excluding the length header
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxMalformed int           `mapstructure:"max_malformed"` // consecutive bad frames before a peer is dropped
}

// Dungeons tells the server where to find dungeon templates.
type Dungeons struct {
	Dir          string `mapstructure:"dir"`
	AllowDefault bool   `mapstructure:"allow_default"` // serve the built-in map for unknown ids
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}
