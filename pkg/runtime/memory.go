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
	"math"

	arrow "github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/dustin/go-humanize"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/memory"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// Region is the concrete backing for one resolved memory object. Regions
// are owned by the loaded network and referenced, never owned, by address
// windows, tensor bindings and tasks.
type Region struct {
	ID     types.MemoryID
	Size   uint64
	Domain loadable.MemoryDomain

	buffer *arrow.Buffer
}

func (r *Region) Bytes() []byte {
	return r.buffer.Bytes()[:r.Size]
}

// Window returns the byte view [offset, offset+size) after bounds
// checking against the region size.
func (r *Region) Window(offset, size uint64) ([]byte, error) {
	if err := checkWindow(offset, size, r.Size); err != nil {
		return nil, err
	}
	return memory.Slice(r.Bytes(), offset, size), nil
}

func (r *Region) release() {
	if r.buffer != nil {
		r.buffer.Release()
		r.buffer = nil
	}
}

// checkWindow validates offset + size <= bound without overflowing.
func checkWindow(offset, size, bound uint64) error {
	if offset > bound || size > bound-offset {
		return common.Errorf(common.KMalformedEntry,
			"window [%d, %d+%d) exceeds size %d", offset, offset, size, bound)
	}
	return nil
}

// regionSet tracks the resolved regions of one loaded network, keyed by
// memory id. Ids are registered up front so a lookup can distinguish an
// unresolved entry from a dangling reference.
type regionSet struct {
	regions map[types.MemoryID]*Region
}

func newRegionSet() *regionSet {
	return &regionSet{regions: make(map[types.MemoryID]*Region)}
}

func (s *regionSet) emplaceID(id types.MemoryID) {
	if _, ok := s.regions[id]; !ok {
		s.regions[id] = nil
	}
}

func (s *regionSet) emplace(id types.MemoryID, region *Region) error {
	if r, ok := s.regions[id]; ok && r != nil {
		return common.Errorf(common.KInvalid,
			"region %s resolved twice", types.MemoryIDToString(id))
	}
	s.regions[id] = region
	return nil
}

func (s *regionSet) get(id types.MemoryID) (*Region, error) {
	region, ok := s.regions[id]
	if !ok || region == nil {
		return nil, common.Errorf(common.KUnresolvedReference,
			"memory %s is not resolved", types.MemoryIDToString(id))
	}
	return region, nil
}

func (s *regionSet) releaseAll() {
	for id, region := range s.regions {
		if region != nil {
			region.release()
		}
		delete(s.regions, id)
	}
}

// memoryResolver walks the memory list and materializes one Region per
// entry, honoring domain capacity and alignment. Entry failures are
// collected into the report; resolution continues with the next entry.
type memoryResolver struct {
	cfg  Config
	used map[loadable.MemoryDomain]uint64
}

func newMemoryResolver(cfg Config) *memoryResolver {
	return &memoryResolver{
		cfg:  cfg,
		used: make(map[loadable.MemoryDomain]uint64),
	}
}

func (m *memoryResolver) resolve(
	l *loadable.Loadable,
	contents map[string][]byte,
	report *ResolutionReport,
) *regionSet {
	logger := log.WithName("memory")
	regions := newRegionSet()

	for i := 0; i < l.MemoryEntryCount(); i++ {
		entry, _ := l.MemoryEntryAt(i)
		regions.emplaceID(entry.ID)

		region, err := m.resolveEntry(entry, contents)
		if err != nil {
			logger.Error(err, "memory entry failed to resolve",
				"id", types.MemoryIDToString(entry.ID))
			report.memoryFailed(entry.ID, err)
			continue
		}
		if err := regions.emplace(entry.ID, region); err != nil {
			report.memoryFailed(entry.ID, err)
			continue
		}
		logger.V(1).Info("resolved memory object",
			"id", types.MemoryIDToString(entry.ID),
			"domain", entry.Domain.String(),
			"size", humanize.IBytes(entry.Size),
			"flags", entry.Flags.String())
	}
	return regions
}

func (m *memoryResolver) resolveEntry(
	entry loadable.MemoryEntry,
	contents map[string][]byte,
) (*Region, error) {
	if entry.Size == 0 || entry.Size > math.MaxInt64 {
		return nil, common.Errorf(common.KMalformedEntry,
			"memory %s: invalid size %d",
			types.MemoryIDToString(entry.ID), entry.Size)
	}
	if !memory.IsAlignment(entry.Alignment) {
		return nil, common.Errorf(common.KMalformedEntry,
			"memory %s: alignment %d is not a power of two",
			types.MemoryIDToString(entry.ID), entry.Alignment)
	}
	// Domain accounting charges the aligned footprint, not the raw size.
	footprint := memory.AlignUp(entry.Size, entry.Alignment)
	if err := m.reserve(entry.Domain, footprint); err != nil {
		return nil, err
	}

	// Content placement is validated before any byte is copied, so a
	// failed entry leaves no partially filled region behind.
	if entry.Flags.Has(loadable.FlagSet) {
		for _, c := range entry.Contents {
			blob, ok := contents[c.Name]
			if !ok {
				m.unreserve(entry.Domain, footprint)
				return nil, common.Errorf(common.KUnresolvedReference,
					"memory %s: content blob %q is missing",
					types.MemoryIDToString(entry.ID), c.Name)
			}
			if err := checkWindow(c.Offset, uint64(len(blob)), entry.Size); err != nil {
				m.unreserve(entry.Domain, footprint)
				return nil, common.Errorf(common.KMalformedEntry,
					"memory %s: content %q at offset %d (%d bytes) exceeds size %d",
					types.MemoryIDToString(entry.ID), c.Name, c.Offset,
					len(blob), entry.Size)
			}
		}
	}

	buffer := arrow.NewResizableBuffer(m.cfg.Allocator)
	buffer.Resize(int(entry.Size))

	region := &Region{
		ID:     entry.ID,
		Size:   entry.Size,
		Domain: entry.Domain,
		buffer: buffer,
	}
	if entry.Flags.Has(loadable.FlagSet) {
		for _, c := range entry.Contents {
			blob := contents[c.Name]
			copy(memory.Slice(region.Bytes(), c.Offset, uint64(len(blob))), blob)
		}
	}
	return region, nil
}

func (m *memoryResolver) capacity(domain loadable.MemoryDomain) uint64 {
	switch domain {
	case loadable.DomainSysmem:
		return m.cfg.SysmemCapacity
	case loadable.DomainSRAM:
		return m.cfg.SRAMCapacity
	}
	return 0
}

func (m *memoryResolver) reserve(domain loadable.MemoryDomain, size uint64) error {
	if !domain.Valid() {
		return common.Errorf(common.KMalformedEntry, "unknown domain %d", uint8(domain))
	}
	capacity := m.capacity(domain)
	if capacity > 0 && m.used[domain]+size > capacity {
		return common.Errorf(common.KNotEnoughMemory,
			"%s exhausted: %s used of %s, %s requested",
			domain, humanize.IBytes(m.used[domain]),
			humanize.IBytes(capacity), humanize.IBytes(size))
	}
	m.used[domain] += size
	return nil
}

func (m *memoryResolver) unreserve(domain loadable.MemoryDomain, size uint64) {
	m.used[domain] -= size
}
