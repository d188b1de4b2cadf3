// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultSet = newSet(prometheus.NewRegistry())

type set struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	counters map[string]*counter
}

func newSet(registry *prometheus.Registry) *set {
	return &set{registry: registry, counters: map[string]*counter{}}
}

func (s *set) getOrCreateCounter(name string) (*counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c, nil
	}

	base, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}

	c := &counter{prometheus.NewCounter(prometheus.CounterOpts{Name: base, ConstLabels: labels})}
	if err := s.registry.Register(c.Counter); err != nil {
		return nil, err
	}

	s.counters[name] = c
	return c, nil
}

// GetOrCreateCounter returns registered counter with the given name
// or creates new counter if the registry doesn't contain counter with
// the given name.
//
// name must be valid Prometheus-compatible metric with possible labels.
// For instance,
//
//   - foo
//   - foo{bar="baz"}
//   - foo{bar="baz",aaa="b"}
//
// The returned counter is safe to use from concurrent goroutines.
func GetOrCreateCounter(name string) Counter {
	c, err := defaultSet.getOrCreateCounter(name)
	if err != nil {
		panic(fmt.Errorf("could not get or create new counter: %w", err))
	}

	return c
}

// Handler serves every registered metric in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(defaultSet.registry, promhttp.HandlerOpts{})
}

func parseMetric(s string) (string, prometheus.Labels, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, "}") {
		return "", nil, fmt.Errorf("missing closing curly brace in %q", s)
	}

	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s[open+1:len(s)-1], ",") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
			return "", nil, fmt.Errorf("malformed label %q in %q", pair, s)
		}
		labels[strings.TrimSpace(k)] = v[1 : len(v)-1]
	}

	return s[:open], labels, nil
}
