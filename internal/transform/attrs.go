package transform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unicode"

	"remotable/internal/logging"
)

// Net selects one of the two compute network deployments.
type Net string

const (
	NetTestnet Net = "testnet"
	NetMainnet Net = "mainnet"
)

// Attribute defaults, applied at generation time.
const (
	DefaultRPCAddress = "127.0.0.1"
	DefaultRPCPort    = 61000
	DefaultNet        = NetTestnet
)

// Attributes is the raw attribute record: nil fields were not supplied.
type Attributes struct {
	Datadir    *string
	RPCAddress *string
	RPCPort    *uint16
	Net        *Net
}

// Config is the fully resolved configuration baked into a generated
// dispatcher.
type Config struct {
	Datadir    string
	RPCAddress string
	RPCPort    uint16
	Net        Net
}

// ResolveAttributes parses a flat key=value attribute list. Supplying a key
// more than once is accepted and the last occurrence wins; each assignment
// unconditionally overwrites the previous one.
func ResolveAttributes(list string) (*Attributes, error) {
	attrs := &Attributes{}
	if err := resolveInto(attrs, list); err != nil {
		return nil, err
	}
	return attrs, nil
}

func resolveInto(attrs *Attributes, list string) error {
	for _, pair := range splitPairs(list) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return &InvalidAttributeValueError{Key: strings.TrimSpace(pair), Reason: "expected key=value"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !isIdent(key) {
			return &UnknownAttributeError{Key: key}
		}

		switch key {
		case "datadir":
			s, err := stringLit(key, value)
			if err != nil {
				return err
			}
			attrs.Datadir = &s
		case "rpc_address":
			s, err := stringLit(key, value)
			if err != nil {
				return err
			}
			attrs.RPCAddress = &s
		case "rpc_port":
			port, err := portLit(key, value)
			if err != nil {
				return err
			}
			attrs.RPCPort = &port
		case "net":
			s, err := stringLit(key, value)
			if err != nil {
				return err
			}
			n := Net(strings.ToLower(s))
			if n != NetTestnet && n != NetMainnet {
				return &InvalidAttributeValueError{Key: key, Value: value, Reason: `must be "testnet" or "mainnet"`}
			}
			attrs.Net = &n
		default:
			return &UnknownAttributeError{Key: key}
		}
		logging.AttrsDebug("attribute %s set", key)
	}
	return nil
}

// Merge overlays supplied fields of other onto a copy of a. Project-level
// defaults are merged under per-function attributes this way.
func (a Attributes) Merge(other *Attributes) Attributes {
	if other == nil {
		return a
	}
	if other.Datadir != nil {
		a.Datadir = other.Datadir
	}
	if other.RPCAddress != nil {
		a.RPCAddress = other.RPCAddress
	}
	if other.RPCPort != nil {
		a.RPCPort = other.RPCPort
	}
	if other.Net != nil {
		a.Net = other.Net
	}
	return a
}

// Config applies documented defaults to unset fields.
func (a *Attributes) Config() (Config, error) {
	cfg := Config{
		RPCAddress: DefaultRPCAddress,
		RPCPort:    DefaultRPCPort,
		Net:        DefaultNet,
	}
	if a.Datadir != nil {
		cfg.Datadir = *a.Datadir
	} else {
		dir, err := DefaultDatadir()
		if err != nil {
			return Config{}, err
		}
		cfg.Datadir = dir
	}
	if a.RPCAddress != nil {
		cfg.RPCAddress = *a.RPCAddress
	}
	if a.RPCPort != nil {
		cfg.RPCPort = *a.RPCPort
	}
	if a.Net != nil {
		cfg.Net = *a.Net
	}
	return cfg, nil
}

// DefaultDatadir is the platform-appropriate per-application data directory
// joined with "default".
func DefaultDatadir() (string, error) {
	base, err := userDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "remotable", "default"), nil
}

// userDataDir resolves the per-user data directory. The standard library
// exposes the config directory only; data lives next to it on darwin and
// windows but under XDG_DATA_HOME (default ~/.local/share) elsewhere.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir := os.Getenv("LocalAppData")
		if dir == "" {
			return "", errors.New("%LocalAppData% is not defined")
		}
		return dir, nil
	case "darwin", "ios":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

func stringLit(key, value string) (string, error) {
	if len(value) < 2 || value[0] != '"' {
		return "", &InvalidAttributeValueError{Key: key, Value: value, Reason: "expected a string literal"}
	}
	s, err := strconv.Unquote(value)
	if err != nil {
		return "", &InvalidAttributeValueError{Key: key, Value: value, Reason: "malformed string literal"}
	}
	return s, nil
}

func portLit(key, value string) (uint16, error) {
	raw := value
	if len(value) > 0 && value[0] == '"' {
		s, err := strconv.Unquote(value)
		if err != nil {
			return 0, &InvalidAttributeValueError{Key: key, Value: value, Reason: "malformed string literal"}
		}
		raw = s
	}
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, &InvalidAttributeValueError{Key: key, Value: value, Reason: "expected an unsigned 16-bit port"}
	}
	return uint16(port), nil
}

// splitPairs splits the attribute list on commas that are not inside string
// literals.
func splitPairs(list string) []string {
	var (
		pairs    []string
		start    int
		inString bool
		escaped  bool
	)
	for i, r := range list {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case r == ',' && !inString:
			if p := strings.TrimSpace(list[start:i]); p != "" {
				pairs = append(pairs, p)
			}
			start = i + 1
		}
	}
	if p := strings.TrimSpace(list[start:]); p != "" {
		pairs = append(pairs, p)
	}
	return pairs
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
