/** Copyright 2024-2026 The accelrt Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package runtime

import (
	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// ResolvedAddress is one concrete address-table slot: an address-list
// entry bound to its backing region.
type ResolvedAddress struct {
	ID     types.AddressID
	Region *Region
	Offset uint64
	Size   uint64
}

// Bytes returns the bound window's byte view.
func (a *ResolvedAddress) Bytes() []byte {
	// The window was validated at bind time.
	data, _ := a.Region.Window(a.Offset, a.Size)
	return data
}

// bindAddresses resolves every address-list entry against the region set
// and validates the window rule offset + size <= region size. A failed
// entry is fatal only to the tasks that reference it; siblings keep
// their tables.
func bindAddresses(
	l *loadable.Loadable,
	regions *regionSet,
	report *ResolutionReport,
) map[types.AddressID]*ResolvedAddress {
	logger := log.WithName("address")
	bound := make(map[types.AddressID]*ResolvedAddress, l.AddressEntryCount())

	for i := 0; i < l.AddressEntryCount(); i++ {
		entry, _ := l.AddressEntryAt(i)

		region, err := regions.get(entry.MemID)
		if err != nil {
			logger.Error(err, "address entry references unresolved memory",
				"id", entry.ID, "mem", types.MemoryIDToString(entry.MemID))
			report.addressFailed(entry.ID, err)
			continue
		}
		if err := checkWindow(entry.Offset, entry.Size, region.Size); err != nil {
			err = common.Errorf(common.KMalformedEntry,
				"address %d: window [%d, %d) exceeds memory %s size %d",
				entry.ID, entry.Offset, entry.Offset+entry.Size,
				types.MemoryIDToString(entry.MemID), region.Size)
			logger.Error(err, "address entry out of range", "id", entry.ID)
			report.addressFailed(entry.ID, err)
			continue
		}
		bound[entry.ID] = &ResolvedAddress{
			ID:     entry.ID,
			Region: region,
			Offset: entry.Offset,
			Size:   entry.Size,
		}
	}
	return bound
}

// taskAddressTable assembles the ordered concrete address table for one
// task. The first unresolved slot poisons the task.
func taskAddressTable(
	task loadable.TaskEntry,
	bound map[types.AddressID]*ResolvedAddress,
	report *ResolutionReport,
) ([]*ResolvedAddress, error) {
	table := make([]*ResolvedAddress, 0, len(task.AddressList))
	for _, id := range task.AddressList {
		slot, ok := bound[id]
		if !ok {
			err := common.Errorf(common.KUnresolvedReference,
				"task %s: address %d is not bound",
				types.TaskIDToString(task.ID), id)
			if cause, failed := report.Address[id]; failed {
				err = cause
			}
			report.taskPoisoned(task.ID, err)
			return nil, err
		}
		table = append(table, slot)
	}
	return table, nil
}
