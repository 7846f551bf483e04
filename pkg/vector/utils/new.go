// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/vector"
	"github.com/legisrag/legisrag/pkg/vector/qdrant"
	"github.com/legisrag/legisrag/pkg/vector/sqlitevec"
)

// NewDriverOpts selects and configures a vector store provider.
type NewDriverOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
	SQLitePath   string
	Logger       *zap.Logger
}

// NewDriver constructs the configured vector store driver.
func NewDriver(o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		host, port, useTLS, err := parseTarget(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(qdrant.Config{
			Host:   host,
			Port:   port,
			APIKey: o.APIKey,
			UseTLS: useTLS,
		}, o.Logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath: o.SQLitePath,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// parseTarget splits a qdrant target into host, port, and TLS mode.
// Accepts bare "host", "host:port", or a URL ("https://host:port", which
// enables TLS the way Qdrant Cloud endpoints require).
func parseTarget(target string) (host string, port int, useTLS bool, err error) {
	if target == "" {
		return "", 0, false, fmt.Errorf("%w: qdrant target is required", vector.ErrConfig)
	}

	hostport := target
	if strings.Contains(target, "://") {
		u, perr := url.Parse(target)
		if perr != nil {
			return "", 0, false, fmt.Errorf("%w: parsing qdrant target %q: %v", vector.ErrConfig, target, perr)
		}
		useTLS = u.Scheme == "https"
		hostport = u.Host
	}

	host = hostport
	if i := strings.LastIndex(hostport, ":"); i != -1 {
		host = hostport[:i]
		port, err = strconv.Atoi(hostport[i+1:])
		if err != nil {
			return "", 0, false, fmt.Errorf("%w: invalid qdrant port in %q: %v", vector.ErrConfig, target, err)
		}
	}

	return host, port, useTLS, nil
}
