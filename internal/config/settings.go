package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Settings is the resolved GraphQL connection target. It is built once per
// process and never modified afterwards.
type Settings struct {
	Scheme string
	Host   string
	Port   string
	Chain  string
	Path   string
	// URL is the final assembled endpoint.
	URL string
}

// ResolveSettings assembles the endpoint URL from cfg. An explicit cfg.URL
// is used as-is; otherwise the URL is built with BuildGraphQLURL.
func ResolveSettings(cfg GraphQLConfig) (Settings, error) {
	s := Settings{
		Scheme: cfg.Scheme,
		Host:   cfg.Host,
		Port:   cfg.Port,
		Chain:  cfg.Chain,
		Path:   cfg.Path,
	}
	if cfg.URL != "" {
		s.URL = cfg.URL
		return s, nil
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	u, err := BuildGraphQLURL(scheme, cfg.Host, cfg.Port, cfg.Chain, cfg.Path)
	if err != nil {
		return Settings{}, err
	}
	s.Scheme = scheme
	s.URL = u
	return s, nil
}

// BuildGraphQLURL assembles "<scheme>://<host>[:<port>]/<path>".
//
// host is required. When path is empty it defaults to "<chain>/graphql";
// when both are empty an error is returned. A host that already carries a
// scheme ("https://node.example") is parsed and its scheme, hostname and port
// take precedence over the separate arguments. A zero or empty port is
// omitted.
func BuildGraphQLURL(scheme, host, port, chain, path string) (string, error) {
	if host == "" {
		return "", errors.New("config: GRAPHQL_HOST is required")
	}

	if path == "" {
		if chain == "" {
			return "", errors.New("config: GRAPHQL_PATH or GRAPHQL_CHAIN is required")
		}
		path = strings.Trim(chain, "/") + "/graphql"
	}

	baseScheme, baseHost := scheme, host
	var basePort int
	if strings.Contains(host, "://") {
		parsed, err := url.Parse(host)
		if err != nil {
			return "", fmt.Errorf("config: invalid GRAPHQL_HOST value: %w", err)
		}
		if parsed.Scheme != "" {
			baseScheme = parsed.Scheme
		}
		if h := parsed.Hostname(); h != "" {
			baseHost = h
		}
		if p := parsed.Port(); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return "", fmt.Errorf("config: invalid port in GRAPHQL_HOST: %w", err)
			}
			basePort = n
		}
	}
	if basePort == 0 && port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return "", fmt.Errorf("config: invalid GRAPHQL_PORT %q: %w", port, err)
		}
		basePort = n
	}

	if baseHost == "" {
		return "", errors.New("config: invalid GRAPHQL_HOST value")
	}

	base := baseScheme + "://" + baseHost
	if basePort != 0 {
		base += ":" + strconv.Itoa(basePort)
	}
	return base + "/" + strings.TrimLeft(path, "/"), nil
}
