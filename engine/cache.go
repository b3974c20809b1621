/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/regrid/mesh"
)

func init() {
	gob.Register(&Weights{})
}

// WeightCache holds computed weight matrices so that operators
// between the same pair of grids can share them. Concurrent requests
// for the same weights are computed once. It is safe for concurrent
// use.
type WeightCache struct {
	cache    *requestcache.Cache
	computed int64
}

// weightRequest is the payload of a weight computation.
type weightRequest struct {
	src, dst *Field
	cfg      Config
}

// NewWeightCache creates a cache holding up to maxEntries weight
// matrices in memory. Zero means no limit. If dir is not empty,
// weights are also stored as files in dir and reused across runs.
func NewWeightCache(maxEntries int, dir string) *WeightCache {
	c := new(WeightCache)
	if dir == "" {
		c.cache = requestcache.NewCache(c.compute, 1, requestcache.Deduplicate(),
			requestcache.Memory(maxEntries))
	} else {
		c.cache = requestcache.NewCache(c.compute, 1, requestcache.Deduplicate(),
			requestcache.Memory(maxEntries),
			requestcache.Disk(dir, requestcache.MarshalGob, requestcache.UnmarshalGob))
	}
	return c
}

func (c *WeightCache) compute(_ context.Context, requestI interface{}) (interface{}, error) {
	r := requestI.(weightRequest)
	atomic.AddInt64(&c.computed, 1)
	return computeWeights(r.src, r.dst, r.cfg)
}

// Operator returns an operator from src to dst using the weights
// stored under key, computing them if they are not cached. key should
// come from WeightKey.
func (c *WeightCache) Operator(ctx context.Context, key string, src, dst *Field, cfg Config) (*Operator, error) {
	cfg = cfg.Normalize()
	r := c.cache.NewRequest(ctx, weightRequest{src: src, dst: dst, cfg: cfg}, key)
	wI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return NewOperatorFromWeights(wI.(*Weights), cfg)
}

// Computed returns the number of weight matrices the cache
// has computed rather than reused.
func (c *WeightCache) Computed() int {
	return int(atomic.LoadInt64(&c.computed))
}

type weightKey struct {
	Src, Dst mesh.Descriptor
	Config   Config
}

// WeightKey returns a key identifying the weights between src and dst
// for cfg.
func WeightKey(src, dst mesh.Descriptor, cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(weightKey{Src: src, Dst: dst, Config: cfg.Normalize()}); err != nil {
		return "", fmt.Errorf("engine: creating weight key: %w", err)
	}
	h := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(h[:]), nil
}
