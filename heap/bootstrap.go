package heap

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/paging"
	"golang.org/x/exp/slog"
)

// Init maps every page of the heap's address range to a fresh frame from frames, flushing each
// mapping as soon as it is made, and then hands the range to the allocation strategy.
//
// If any page fails to map, the error is returned wrapping a *paging.MapToError and the strategy
// is never initialized; pages mapped before the failure stay mapped. Init returns
// ErrAlreadyInitialized if it has already been called successfully or is running concurrently.
func (h *Heap) Init(mapper paging.Mapper, frames paging.FrameAllocator) error {
	if !h.state.CompareAndSwap(stateUninitialized, stateInitializing) {
		return ErrAlreadyInitialized
	}

	pages := paging.PageRangeInclusive(
		paging.PageContaining(h.heapStart),
		paging.PageContaining(h.heapStart+h.heapSize-1),
	)

	h.logger.Debug("Heap::Init",
		slog.String("Strategy", h.strategy.String()),
		slog.String("HeapStart", fmt.Sprintf("0x%x", h.heapStart)),
		slog.Int("HeapSize", int(h.heapSize)),
		slog.Int("PageCount", pages.Count()))

	err := pages.Visit(func(page paging.Page) error {
		frame, ok := frames.AllocateFrame()
		if !ok {
			return &paging.MapToError{Kind: paging.FrameAllocationFailed, Page: page}
		}

		flush, err := mapper.MapTo(page, frame, paging.FlagPresent|paging.FlagWritable, frames)
		if err != nil {
			return err
		}

		flush.Flush()
		return nil
	})
	if err != nil {
		h.logger.LogAttrs(context.Background(), slog.LevelError, "failed to map heap pages",
			slog.String("HeapStart", fmt.Sprintf("0x%x", h.heapStart)),
			slog.Any("error", err))
		h.state.Store(stateUninitialized)
		return errors.Wrapf(err, "failed to map heap at 0x%x", h.heapStart)
	}

	h.allocator.Init(h.heapStart, h.heapSize)
	h.state.Store(stateReady)
	return nil
}
