package schema

import "time"

// ServerConfig contains proxy server connection settings
type ServerConfig struct {
	Address        string        `yaml:"address" json:"address"`
	Transport      string        `yaml:"transport" json:"transport"` // tcp/websocket
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	MaxPayload     int           `yaml:"max_payload" json:"max_payload"` // largest accepted frame payload in bytes
}

// Transports
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)
