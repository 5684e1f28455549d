// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package addrset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	contendedCounter = metrics.NewRegisteredCounter("addrset/trylock/contended", nil)
	registryGauge    = metrics.NewRegisteredGauge("addrset/registry/size", nil)
)

// LockManager owns one binary lock per address and locks whole AddressSets.
// Members are always acquired in ascending and released in descending order,
// so concurrently locking sets can never deadlock each other.
//
// Locks are not reentrant. Locking a set overlapping with a set already held
// by the same goroutine blocks forever.
//
// Per-address locks are reference counted by their holders and waiters and
// dropped from the registry once unused, so the registry only grows with the
// number of addresses currently in use.
type LockManager struct {
	mutex sync.Mutex
	locks map[string]*addressLock
}

// addressLock is a binary semaphore with a reference count guarded by the
// registry mutex.
type addressLock struct {
	semaphore chan struct{}
	refs      int
}

func NewLockManager() *LockManager {
	return &LockManager{locks: map[string]*addressLock{}}
}

// Lock blocks until all addresses of the set are locked.
func (m *LockManager) Lock(set AddressSet) {
	for i := 0; i < set.Len(); i++ {
		m.acquire(set.At(i)).semaphore <- struct{}{}
	}
}

// TryLock locks all addresses of the set if none of them is held. Otherwise
// no lock is retained and false is returned.
func (m *LockManager) TryLock(set AddressSet) bool {
	for i := 0; i < set.Len(); i++ {
		address := set.At(i)
		lock := m.acquire(address)
		select {
		case lock.semaphore <- struct{}{}:
			continue
		default:
		}
		m.release(address)
		for j := i - 1; j >= 0; j-- {
			m.unlock(set.At(j))
		}
		contendedCounter.Inc(1)
		return false
	}
	return true
}

// Unlock releases all addresses of the set. Releasing an address that is
// not locked panics.
func (m *LockManager) Unlock(set AddressSet) {
	for i := set.Len() - 1; i >= 0; i-- {
		m.unlock(set.At(i))
	}
}

// Size is the number of addresses currently locked or waited for.
func (m *LockManager) Size() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.locks)
}

func (m *LockManager) unlock(address string) {
	m.mutex.Lock()
	lock, found := m.locks[address]
	m.mutex.Unlock()
	if !found {
		panic(fmt.Sprintf("unlock of unlocked address %s", address))
	}
	select {
	case <-lock.semaphore:
	default:
		panic(fmt.Sprintf("unlock of unlocked address %s", address))
	}
	m.release(address)
}

// acquire registers interest in the address lock, creating it if needed.
func (m *LockManager) acquire(address string) *addressLock {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	lock, found := m.locks[address]
	if !found {
		lock = &addressLock{semaphore: make(chan struct{}, 1)}
		m.locks[address] = lock
		registryGauge.Update(int64(len(m.locks)))
	}
	lock.refs++
	return lock
}

// release drops interest in the address lock, removing it once unused.
func (m *LockManager) release(address string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	lock := m.locks[address]
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, address)
		registryGauge.Update(int64(len(m.locks)))
	}
}
