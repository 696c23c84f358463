package utils

import (
	_ "embed"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
)

//go:embed user_agents.txt
var builtinUserAgents string

var (
	acceptLanguages = []string{"en-US,en;q=0.9", "en-GB,en;q=0.9"}
	acceptValues    = []string{
		"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9",
		"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	}
)

// HeaderProfile is the browser-like header set sent with one outbound request.
// Accept-Encoding is left to the transport so responses are decompressed.
type HeaderProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// HeaderSource picks a fresh HeaderProfile for every call.
type HeaderSource struct {
	agents []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeaderSource builds a source over agents. An empty list falls back to
// the built-in user agents.
func NewHeaderSource(agents []string, rng *rand.Rand) *HeaderSource {
	if len(agents) == 0 {
		agents = ParseUserAgents(builtinUserAgents)
	}
	return &HeaderSource{agents: agents, rng: rng}
}

// LoadUserAgents reads a user-agent list, one per line, blank lines ignored.
// An empty path yields the built-in list.
func LoadUserAgents(path string) ([]string, error) {
	if path == "" {
		return ParseUserAgents(builtinUserAgents), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user agents %q: %w", path, err)
	}
	agents := ParseUserAgents(string(data))
	if len(agents) == 0 {
		return nil, fmt.Errorf("user agents file %q is empty", path)
	}
	return agents, nil
}

// ParseUserAgents splits text into trimmed, non-empty lines.
func ParseUserAgents(text string) []string {
	var agents []string
	for _, line := range strings.Split(text, "\n") {
		if ua := strings.TrimSpace(line); ua != "" {
			agents = append(agents, ua)
		}
	}
	return agents
}

// Next returns a new randomly chosen profile.
func (s *HeaderSource) Next() HeaderProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RandomHeaderProfile(s.rng, s.agents)
}

// RandomHeaderProfile chooses a profile from agents using rng.
func RandomHeaderProfile(rng *rand.Rand, agents []string) HeaderProfile {
	return HeaderProfile{
		UserAgent:      agents[rng.Intn(len(agents))],
		Accept:         acceptValues[rng.Intn(len(acceptValues))],
		AcceptLanguage: acceptLanguages[rng.Intn(len(acceptLanguages))],
	}
}

// Apply sets the profile on an outbound request.
func (p HeaderProfile) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
