// Package simple implements a first-fit free-list allocator over a fixed
// arena.
//
// Every block starts with a header and ends with a tail word:
//
//	free block:      HEAD | INFO1 | INFO2 | NEXT | PREV | ... | TAIL
//	allocated block: HEAD | INFO1 | INFO2 | user bytes ...    | TAIL
//
// HEAD holds MARK | size | allocated bit, TAIL repeats the size so the left
// neighbour can be found from any block. INFO1 holds the pool id and INFO2
// the user address. NEXT and PREV link free blocks in a circular list and
// are stored as byte offsets from the pool start.
package simple

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/internal/spinlock"
	"github.com/viant/edt/service/allocator"
)

const (
	wordSize  = 8
	alignMask = wordSize - 1

	mark      uint64 = 0xfeef << 48
	markMask  uint64 = 0xffff << 48
	sizeMask  uint64 = (1<<48 - 1) &^ 3
	allocated uint64 = 1

	headWord  = 0
	info1Word = 1
	info2Word = 2
	nextWord  = 3
	prevWord  = 4

	userOffset = 3 * wordSize
	// Overhead is the per-block bookkeeping in bytes.
	Overhead = 4 * wordSize
	// MinFreeSize is the smallest block that can hold the free-list links.
	MinFreeSize = 6 * wordSize

	noBlock = ^uint64(0)
)

// Pool is one arena managed by the first-fit algorithm. Addresses are byte
// offsets into the arena.
type Pool struct {
	lock     spinlock.Lock
	id       uint64
	arena    []byte
	end      uint64
	freelist uint64
	logger   logrus.FieldLogger
}

// Stats summarizes pool occupancy.
type Stats struct {
	FreeBytes  uint64
	FreeBlocks int
	UsedBytes  uint64
	UsedBlocks int
}

// NewPool formats arena as a single free block. The arena length is rounded
// down to the alignment.
func NewPool(id uint64, arena []byte, logger logrus.FieldLogger) (*Pool, error) {
	size := uint64(len(arena)) &^ alignMask
	if size < MinFreeSize {
		return nil, errors.Errorf("simple: pool of %d bytes is smaller than %d", size, MinFreeSize)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Pool{
		id:       id,
		arena:    arena[:size:size],
		end:      size,
		freelist: noBlock,
		logger:   logger,
	}
	p.lock.Lock()
	p.insertFree(0, size)
	p.lock.Unlock()
	return p, nil
}

// Size returns the arena size in bytes.
func (p *Pool) Size() uint64 {
	return p.end
}

// Allocate returns the offset of size usable bytes, or false when no free
// block fits.
func (p *Pool) Allocate(size uint64) (uint64, bool) {
	need := ((size + alignMask) &^ alignMask) + Overhead
	if need < MinFreeSize {
		need = MinFreeSize
	}
	if need < size {
		return 0, false
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.freelist == noBlock {
		return 0, false
	}
	b := p.freelist
	for {
		if blockSize(p.word(b, headWord)) >= need {
			p.deleteFree(b)
			p.splitFree(b, need)
			user := b + userOffset
			p.setWord(b, info1Word, p.id)
			p.setWord(b, info2Word, user)
			return user, true
		}
		next := p.word(b, nextWord)
		if next == p.freelist {
			return 0, false
		}
		b = next
	}
}

// Free returns the block at user offset addr to the pool, coalescing with
// free neighbours. Invalid addresses are logged and leave the pool intact.
func (p *Pool) Free(addr uint64) error {
	if addr < userOffset || addr&alignMask != 0 || addr+wordSize > p.end {
		return p.reject(addr, "address outside the pool")
	}
	b := addr - userOffset
	p.lock.Lock()
	defer p.lock.Unlock()
	head := p.word(b, headWord)
	if head&markMask != mark {
		return p.reject(addr, "mark not found, probably a wrong address")
	}
	if head&allocated == 0 {
		return p.reject(addr, "block is not allocated, double free?")
	}
	if p.word(b, info1Word) != p.id || p.word(b, info2Word) != addr {
		return p.reject(addr, "block belongs to another pool")
	}
	size := blockSize(head)
	if size < MinFreeSize || b+size > p.end {
		return p.reject(addr, "block size out of bounds")
	}
	if p.tail(b, size) != size {
		return p.reject(addr, "head and tail sizes differ")
	}

	right := b + size
	if right != p.end {
		rightHead := p.word(right, headWord)
		if rightHead&markMask != mark {
			p.logger.WithField("addr", addr).Info("right neighbour mark not found")
		} else if rightHead&allocated == 0 {
			size += blockSize(rightHead)
			p.deleteFree(right)
			p.setWord(right, headWord, 0)
		}
	}
	if b != 0 {
		leftSize := p.word(b-wordSize, 0)
		if leftSize <= b && leftSize >= MinFreeSize {
			left := b - leftSize
			leftHead := p.word(left, headWord)
			if leftHead&markMask != mark {
				p.logger.WithField("addr", addr).Info("left neighbour mark not found")
			} else if leftHead&allocated == 0 {
				size += blockSize(leftHead)
				p.setWord(left, headWord, mark|size)
				p.setTail(left, size)
				p.setWord(b, headWord, 0)
				return nil
			}
		}
	}
	p.insertFree(b, size)
	return nil
}

// Bytes returns size bytes at addr.
func (p *Pool) Bytes(addr, size uint64) []byte {
	return p.arena[addr : addr+size : addr+size]
}

// Stats walks every block of the pool.
func (p *Pool) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()
	var stats Stats
	for b := uint64(0); b < p.end; {
		head := p.word(b, headWord)
		size := blockSize(head)
		if size == 0 {
			break
		}
		if head&allocated == 0 {
			stats.FreeBytes += size
			stats.FreeBlocks++
		} else {
			stats.UsedBytes += size
			stats.UsedBlocks++
		}
		b += size
	}
	return stats
}

// Check verifies the block layout and the free list. It returns the first
// violation found.
func (p *Pool) Check() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	free := 0
	prevFree := false
	for b := uint64(0); b < p.end; {
		head := p.word(b, headWord)
		if head&markMask != mark {
			return errors.Errorf("block 0x%x: mark not found", b)
		}
		size := blockSize(head)
		if size < MinFreeSize || b+size > p.end {
			return errors.Errorf("block 0x%x: size %d out of bounds", b, size)
		}
		if p.tail(b, size) != size {
			return errors.Errorf("block 0x%x: head size %d, tail size %d", b, size, p.tail(b, size))
		}
		isFree := head&allocated == 0
		if isFree {
			if prevFree {
				return errors.Errorf("block 0x%x: adjacent free blocks", b)
			}
			free++
		}
		prevFree = isFree
		b += size
	}
	listed := 0
	if p.freelist != noBlock {
		b := p.freelist
		for {
			listed++
			if listed > free {
				return errors.New("free list longer than free block count")
			}
			next := p.word(b, nextWord)
			if p.word(next, prevWord) != b {
				return errors.Errorf("block 0x%x: broken back link", next)
			}
			if next == p.freelist {
				break
			}
			b = next
		}
	}
	if listed != free {
		return errors.Errorf("free list has %d blocks, pool has %d", listed, free)
	}
	return nil
}

func (p *Pool) String() string {
	s := p.Stats()
	return fmt.Sprintf("pool %d: %d bytes, %d free blocks (%d bytes), %d used blocks (%d bytes)",
		p.id, p.end, s.FreeBlocks, s.FreeBytes, s.UsedBlocks, s.UsedBytes)
}

func (p *Pool) reject(addr uint64, reason string) error {
	p.logger.WithFields(logrus.Fields{"pool": p.id, "addr": addr}).Warn("free: " + reason)
	return errors.Wrapf(allocator.ErrInvalidFree, "0x%x: %s", addr, reason)
}

func (p *Pool) insertFree(b, size uint64) {
	p.setWord(b, headWord, mark|size)
	p.setTail(b, size)
	if p.freelist == noBlock {
		p.setWord(b, nextWord, b)
		p.setWord(b, prevWord, b)
		p.freelist = b
		return
	}
	q := p.freelist
	r := p.word(q, prevWord)
	p.setWord(r, nextWord, b)
	p.setWord(b, nextWord, q)
	p.setWord(b, prevWord, r)
	p.setWord(q, prevWord, b)
}

func (p *Pool) deleteFree(b uint64) {
	next := p.word(b, nextWord)
	prev := p.word(b, prevWord)
	if next == b {
		p.freelist = noBlock
		return
	}
	p.setWord(prev, nextWord, next)
	p.setWord(next, prevWord, prev)
	if b == p.freelist {
		p.freelist = next
	}
}

// splitFree marks the first size bytes of b allocated and returns the rest
// to the free list when it is large enough to be a block of its own.
func (p *Pool) splitFree(b, size uint64) {
	remain := blockSize(p.word(b, headWord)) - size
	if remain >= MinFreeSize {
		p.setWord(b, headWord, mark|size|allocated)
		p.setTail(b, size)
		p.insertFree(b+size, remain)
		return
	}
	p.setWord(b, headWord, p.word(b, headWord)|allocated)
}

func blockSize(head uint64) uint64 {
	return head & sizeMask
}

func (p *Pool) word(b uint64, index uint64) uint64 {
	off := b + index*wordSize
	return binary.LittleEndian.Uint64(p.arena[off : off+wordSize])
}

func (p *Pool) setWord(b uint64, index uint64, v uint64) {
	off := b + index*wordSize
	binary.LittleEndian.PutUint64(p.arena[off:off+wordSize], v)
}

func (p *Pool) tail(b, size uint64) uint64 {
	return p.word(b+size-wordSize, 0)
}

func (p *Pool) setTail(b, size uint64) {
	p.setWord(b+size-wordSize, 0, size)
}
