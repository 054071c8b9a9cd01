// Package proxy loads free proxy lists and rotates them across browser
// sessions.
package proxy

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// allowedProtocols are the schemes Chrome's --proxy-server accepts.
var allowedProtocols = map[string]struct{}{
	"socks4": {},
	"socks5": {},
	"http":   {},
	"https":  {},
}

// Proxy is one egress from the list. The zero value means a direct
// connection.
type Proxy struct {
	URL      string `json:"url"` // scheme://ip:port
	Protocol string `json:"protocol"`
	IP       string `json:"ip"`
	Port     string `json:"port"`
	Country  string `json:"country"`
}

// Direct reports whether the proxy is the direct-connection placeholder.
func (p Proxy) Direct() bool { return p.URL == "" }

// LoadCSV parses a free-proxy-list export: a header row with at least
// ip, port, and protocols columns, country optional. Rows whose protocol
// Chrome cannot use are skipped.
func LoadCSV(r io.Reader) ([]Proxy, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "proxy: read csv header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ip", "port", "protocols"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("proxy: csv missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var proxies []Proxy
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "proxy: read csv row")
		}

		protocol := strings.ToLower(field(row, "protocols"))
		if _, ok := allowedProtocols[protocol]; !ok {
			continue
		}
		ip := field(row, "ip")
		port := field(row, "port")
		if ip == "" || port == "" {
			continue
		}

		proxies = append(proxies, Proxy{
			URL:      protocol + "://" + ip + ":" + port,
			Protocol: protocol,
			IP:       ip,
			Port:     port,
			Country:  field(row, "country"),
		})
	}
	return proxies, nil
}

// Rotation hands each worker a fresh attempt list: a direct connection
// first, then a shuffled sample of proxies.
type Rotation struct {
	mu         sync.Mutex
	proxies    []Proxy
	perAttempt int
}

// NewRotation creates a rotation sampling perAttempt proxies per call.
// perAttempt <= 0 defaults to 3.
func NewRotation(proxies []Proxy, perAttempt int) *Rotation {
	if perAttempt <= 0 {
		perAttempt = 3
	}
	return &Rotation{proxies: proxies, perAttempt: perAttempt}
}

// Attempts returns the connection order for one unit of work: direct
// first, then up to perAttempt shuffled proxies.
func (r *Rotation) Attempts() []Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()

	rand.Shuffle(len(r.proxies), func(i, j int) {
		r.proxies[i], r.proxies[j] = r.proxies[j], r.proxies[i]
	})

	n := min(r.perAttempt, len(r.proxies))
	attempts := make([]Proxy, 0, n+1)
	attempts = append(attempts, Proxy{})
	attempts = append(attempts, r.proxies[:n]...)
	return attempts
}

// Size returns the number of loaded proxies.
func (r *Rotation) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}
