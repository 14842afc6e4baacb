// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package assetdir spec's the AssetDirectory external collaborator
// (spec §4.2): identity and ownership queries the ProvenanceGraph
// consults on every mutation. The real collaborator is an asset-token
// contract (IAssetToken) out of scope for this core; InMemory here is
// the in-memory stand-in used by the engine and its tests, kept to the
// same two-method interface so swapping in a real backend is a matter
// of satisfying Directory.
package assetdir

import (
	"sync"

	"github.com/ava-labs/airoyalty/ids"
)

// Directory is the query surface ProvenanceGraph depends on.
type Directory interface {
	OwnerOf(asset ids.AssetID) (ids.Principal, bool)
	Exists(asset ids.AssetID) bool
}

var _ Directory = (*InMemory)(nil)

// InMemory is a simple owner registry for tests and single-process
// deployments, guarded the way chains.Supernets guards its map.
type InMemory struct {
	lock   sync.RWMutex
	owners map[ids.AssetID]ids.Principal
}

// NewInMemory returns an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{owners: make(map[ids.AssetID]ids.Principal)}
}

// Mint registers owner as the owner of asset, creating it.
func (d *InMemory) Mint(asset ids.AssetID, owner ids.Principal) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.owners[asset] = owner
}

// Transfer reassigns asset to newOwner. No-op on a nonexistent asset.
func (d *InMemory) Transfer(asset ids.AssetID, newOwner ids.Principal) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.owners[asset]; ok {
		d.owners[asset] = newOwner
	}
}

func (d *InMemory) OwnerOf(asset ids.AssetID) (ids.Principal, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	p, ok := d.owners[asset]
	return p, ok
}

func (d *InMemory) Exists(asset ids.AssetID) bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	_, ok := d.owners[asset]
	return ok
}
