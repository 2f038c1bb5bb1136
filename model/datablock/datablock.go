// Package datablock describes data blocks: allocator backed byte ranges that
// tasks depend on.
package datablock

import "github.com/viant/edt/service/guid"

// DataBlock is a byte range owned by the policy domain allocator.
type DataBlock struct {
	GUID guid.GUID
	Addr uint64
	Size uint64
	// Data is the view of the allocator memory at Addr.
	Data []byte
}
