package robot

import "fmt"

// Transport names accepted by Open.
const (
	TransportSerial    = "serial"
	TransportUDP       = "udp"
	TransportWebSocket = "ws"
	TransportHTTP      = "http"
	TransportLog       = "log"
)

// Config selects and addresses a transport.
type Config struct {
	Transport string      // serial, udp, ws, http or log
	Port      string      // Serial device path
	Addr      string      // host:port for udp, URL for ws and http
	Serial    PortOptions // Serial line settings
}

// Open creates the configured transport.
func Open(cfg Config) (Controller, error) {
	switch cfg.Transport {
	case TransportSerial:
		if cfg.Port == "" {
			return nil, fmt.Errorf("robot: serial transport needs a port")
		}
		return NewSerialController(cfg.Port, cfg.Serial)
	case TransportUDP:
		if cfg.Addr == "" {
			return nil, fmt.Errorf("robot: udp transport needs an address")
		}
		return NewUDPController(cfg.Addr)
	case TransportWebSocket:
		if cfg.Addr == "" {
			return nil, fmt.Errorf("robot: websocket transport needs a URL")
		}
		return NewWebSocketController(cfg.Addr)
	case TransportHTTP:
		if cfg.Addr == "" {
			return nil, fmt.Errorf("robot: http transport needs a base URL")
		}
		return NewHTTPController(cfg.Addr), nil
	case "", TransportLog:
		return NewLogController(), nil
	default:
		return nil, fmt.Errorf("robot: unknown transport %q", cfg.Transport)
	}
}
