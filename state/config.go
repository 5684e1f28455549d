// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"github.com/Fantom-foundation/Ledger/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/btree"
)

type configItem struct {
	Key   string
	Value string
}

func configLess(a, b configItem) bool {
	return a.Key < b.Key
}

// ConfigMap is an immutable, ordered map of configuration values of a State.
// Deriving a modified map is cheap, since both maps share unmodified nodes.
type ConfigMap struct {
	items *btree.BTreeG[configItem]
}

func NewConfigMap(values map[string]string) *ConfigMap {
	items := btree.NewG[configItem](8, configLess)
	for key, value := range values {
		items.ReplaceOrInsert(configItem{key, value})
	}
	return &ConfigMap{items: items}
}

func (c *ConfigMap) Get(key string) (string, bool) {
	item, found := c.items.Get(configItem{Key: key})
	return item.Value, found
}

func (c *ConfigMap) Len() int {
	return c.items.Len()
}

// ForEach visits all values in key order until the callback returns false.
func (c *ConfigMap) ForEach(callback func(key, value string) bool) {
	c.items.Ascend(func(item configItem) bool {
		return callback(item.Key, item.Value)
	})
}

// With derives a map with the given changes applied. A nil value removes the key.
func (c *ConfigMap) With(changes map[string]*string) *ConfigMap {
	if len(changes) == 0 {
		return c
	}
	items := c.items.Clone()
	for key, value := range changes {
		if value == nil {
			items.Delete(configItem{Key: key})
		} else {
			items.ReplaceOrInsert(configItem{key, *value})
		}
	}
	return &ConfigMap{items: items}
}

// Hash is the SHA-256 of the RLP encoded, ordered key/value pairs, or the
// zero hash for an empty map.
func (c *ConfigMap) Hash() (common.Hash, error) {
	if c.items.Len() == 0 {
		return common.Hash{}, nil
	}
	items := make([]configItem, 0, c.items.Len())
	c.items.Ascend(func(item configItem) bool {
		items = append(items, item)
		return true
	})
	data, err := rlp.EncodeToBytes(items)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Sha256(data), nil
}
