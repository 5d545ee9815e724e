/*
Copyright © 2019 the InMAP authors.
This file is part of cfmeta.

cfmeta is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfmeta is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfmeta.  If not, see <http://www.gnu.org/licenses/>.
*/

package catalog

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cfmeta"
	"github.com/spatialmodel/cfmeta/internal/hash"
	"github.com/spatialmodel/cfmeta/ncfile"
)

// Dataset is an open dataset that must be closed after use.
type Dataset interface {
	cfmeta.Dataset
	io.Closer
}

// OpenFunc opens the dataset at source.
type OpenFunc func(ctx context.Context, source string) (Dataset, error)

// OpenNetCDF opens the local NetCDF file at source.
func OpenNetCDF(ctx context.Context, source string) (Dataset, error) {
	f, err := ncfile.Open(source)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Harvester derives catalog records from datasets. Successful results
// are cached, so harvesting a source again returns the cached record.
type Harvester struct {
	// Resolver derives the metadata. If nil, a zero Resolver is used.
	Resolver *cfmeta.Resolver

	// Open opens sources. If nil, OpenNetCDF is used.
	Open OpenFunc

	// Log receives diagnostic messages. If nil, logrus.StandardLogger()
	// is used.
	Log logrus.FieldLogger

	// Concurrency is the maximum number of datasets processed at
	// once. If zero, runtime.GOMAXPROCS(-1) is used.
	Concurrency int

	// CacheSize is the number of records kept in memory. If zero,
	// 1000 records are kept.
	CacheSize int

	cache    *requestcache.Cache
	vocabKey string
	initOnce sync.Once
}

func (h *Harvester) init() {
	if h.Resolver == nil {
		h.Resolver = new(cfmeta.Resolver)
	}
	if h.Open == nil {
		h.Open = OpenNetCDF
	}
	if h.Log == nil {
		h.Log = logrus.StandardLogger()
	}
	if h.Resolver.Log == nil {
		r := *h.Resolver
		r.Log = h.Log
		h.Resolver = &r
	}
	n := h.Concurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(-1)
	}
	size := h.CacheSize
	if size <= 0 {
		size = 1000
	}
	h.vocabKey = VocabularyKey(h.Resolver)
	// requestcache.Deduplicate never releases the duplicates of a
	// failed request, so Harvest removes duplicate sources itself.
	h.cache = requestcache.NewCache(h.harvest, n, requestcache.Memory(size))
}

// VocabularyKey returns a key identifying the vocabulary and rules used by r.
// Resolvers that differ only in whether defaults are set explicitly have
// equal keys.
func VocabularyKey(r *cfmeta.Resolver) string {
	e := r.Effective()
	return hash.Hash(e.Vocabulary, e.VectorPairs, e.Hidden, e.CoordinatePairs,
		e.LegacyCoordinateProbe, e.TimeStandardName)[:16]
}

func sourceID(source string) string {
	return hash.Hash(source)[:16]
}

// harvest processes a single source.
func (h *Harvester) harvest(ctx context.Context, request interface{}) (interface{}, error) {
	source := request.(string)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := h.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %v", source, err)
	}
	defer ds.Close()
	m := h.Resolver.Describe(ds, source)
	h.Log.WithFields(logrus.Fields{
		"source": source,
		"layers": len(m.Layers),
	}).Info("harvested dataset")
	return NewRecord(source, m, h.vocabKey), nil
}

// Harvest returns a record for each distinct source that could be
// opened, in the order the sources were given. Sources that fail are logged and
// skipped; an error is returned only if every source failed.
// Records are cached and may be shared between calls, so they
// should not be modified.
func (h *Harvester) Harvest(ctx context.Context, sources ...string) ([]*Record, error) {
	h.initOnce.Do(h.init)
	sources = unique(sources)
	records := make([]*Record, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup
	wg.Add(len(sources))
	for i, source := range sources {
		go func(i int, source string) {
			defer wg.Done()
			req := h.cache.NewRequest(ctx, source, hash.Hash(source, h.vocabKey))
			r, err := req.Result()
			if err != nil {
				errs[i] = err
				return
			}
			records[i] = r.(*Record)
		}(i, source)
	}
	wg.Wait()

	var out []*Record
	var lastErr error
	for i, r := range records {
		if errs[i] != nil {
			h.Log.WithError(errs[i]).WithField("source", sources[i]).Error("skipping dataset")
			lastErr = errs[i]
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("catalog: all %d sources failed; last error: %v", len(sources), lastErr)
	}
	return out, nil
}

// unique returns sources without repeated entries.
func unique(sources []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
