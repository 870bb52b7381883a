// Package batch runs the mint flow over a list of wallets, one wallet at a time.
package batch

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrProxyCountMismatch is returned when a non-empty proxy list does not line up
// with the wallet list.
var ErrProxyCountMismatch = errors.New("proxies count doesn't match wallets count, add proxies or leave proxies file empty")

// Entry is one queued wallet: its raw credential line and its proxy ("" for none).
type Entry struct {
	Credential string
	Proxy      string
}

// ReadLines returns the non-empty, trimmed lines of path. A missing file yields no
// lines when optional is set.
func ReadLines(path string, optional bool) ([]string, error) {
	lines, err := readTrimmed(path, optional)
	if err != nil {
		return nil, err
	}

	out := lines[:0]
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// ReadProxies returns the trimmed lines of an optional proxies file. Interior
// blank lines stay as "" so positions keep lining up with the wallets; trailing
// blank lines are dropped.
func ReadProxies(path string) ([]string, error) {
	lines, err := readTrimmed(path, true)
	if err != nil {
		return nil, err
	}

	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	if end == 0 {
		return nil, nil
	}
	return lines[:end], nil
}

func readTrimmed(path string, optional bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// Pair aligns credentials with proxies by position. An empty proxy list means no
// proxy for any wallet; any other count mismatch is a configuration error.
func Pair(credentials, proxies []string) ([]Entry, error) {
	if len(proxies) != 0 && len(proxies) != len(credentials) {
		return nil, fmt.Errorf("%w: %d proxies for %d wallets", ErrProxyCountMismatch, len(proxies), len(credentials))
	}

	entries := make([]Entry, len(credentials))
	for i, cred := range credentials {
		entries[i].Credential = cred
		if len(proxies) != 0 {
			entries[i].Proxy = proxies[i]
		}
	}
	return entries, nil
}

// LoadEntries reads the wallet and proxy files and pairs them.
func LoadEntries(walletsPath, proxiesPath string) ([]Entry, error) {
	credentials, err := ReadLines(walletsPath, false)
	if err != nil {
		return nil, err
	}
	proxies, err := ReadProxies(proxiesPath)
	if err != nil {
		return nil, err
	}
	return Pair(credentials, proxies)
}
