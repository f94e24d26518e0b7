package config

import (
	"fmt"
	"strings"
)

func (g GatewayConfig) Addr() string {
	host := g.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, g.Port)
}

// PublicBaseURL is the prefix used for links handed back in chat replies.
func (g GatewayConfig) PublicBaseURL() string {
	if base := strings.TrimRight(strings.TrimSpace(g.BaseURL), "/"); base != "" {
		return base
	}
	return "http://" + g.Addr()
}
