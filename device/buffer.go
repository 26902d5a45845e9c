package device

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
)

// A Buffer is a named block of device memory.
type Buffer struct {
	// Handle to opencl buffer.
	bufHandle cl.Mem

	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Allocated size.
	size int
}

// Get buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Get buffer size.
func (b *Buffer) Size() int {
	return b.size
}

// Allocate a buffer with the given size and flags.
func (b *Buffer) Allocate(size int, flags cl.MemFlags) error {
	return b.create(size, flags, nil)
}

// Allocate a buffer with enough capacity to fit the given slice.
func (b *Buffer) AllocateToFitData(data interface{}, flags cl.MemFlags) error {
	_, dataLen := getSliceData(data)
	return b.create(dataLen, flags, nil)
}

// Allocate a buffer large enough to hold the given slice and copy the slice
// contents into it. The behavior of this method is undefined if the argument
// does not use contiguous memory.
func (b *Buffer) AllocateAndWriteData(data interface{}, flags cl.MemFlags) error {
	dataPtr, dataLen := getSliceData(data)
	return b.create(dataLen, flags|cl.MEM_COPY_HOST_PTR, dataPtr)
}

func (b *Buffer) create(size int, flags cl.MemFlags, hostPtr unsafe.Pointer) error {
	if b.device.ctx == nil {
		return fmt.Errorf("%w: allocating buffer %s", ErrNotInitialized, b.name)
	}

	// If the buffer is already allocated release it
	b.Release()

	var errCode cl.ErrorCode
	b.bufHandle = cl.CreateBuffer(
		*b.device.ctx,
		flags,
		cl.MemFlags(size),
		hostPtr,
		(*int32)(&errCode),
	)
	if err := clError(b.device, errCode, "could not allocate buffer %s of size %d", b.name, size); err != nil {
		b.bufHandle = nil
		return err
	}

	b.size = size
	return nil
}

// Write a slice to the device buffer starting at the given byte offset.
func (b *Buffer) WriteData(data interface{}, offset int) error {
	dataPtr, dataLen := getSliceData(data)

	if offset+dataLen > b.size {
		return fmt.Errorf("%w: %s holds %d bytes; writing %d bytes at offset %d", ErrBufferTooSmall, b.name, b.size, dataLen, offset)
	}

	errCode := cl.EnqueueWriteBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(offset),
		uint64(dataLen),
		dataPtr,
		0,
		nil,
		nil,
	)
	return clError(b.device, errCode, "error copying host data to device buffer %s", b.name)
}

// Read data from device buffer into the supplied host slice. If size is <= 0
// then ReadData will read the entire buffer. Both src and dst offsets are
// specified in bytes.
func (b *Buffer) ReadData(srcOffset, dstOffset, size int, hostBuffer interface{}) error {
	if size <= 0 {
		size = b.size - srcOffset
	}

	dataPtr, dataLen := getSliceData(hostBuffer)
	if dstOffset+size > dataLen {
		return fmt.Errorf("%w: host buffer holds %d bytes; reading %d bytes at offset %d from %s", ErrBufferTooSmall, dataLen, size, dstOffset, b.name)
	}

	errCode := cl.EnqueueReadBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(srcOffset),
		uint64(size),
		unsafe.Add(dataPtr, dstOffset),
		0,
		nil,
		nil,
	)
	return clError(b.device, errCode, "error copying device data from %s to host buffer", b.name)
}

// Release buffer.
func (b *Buffer) Release() {
	if b.bufHandle != nil {
		cl.ReleaseMemObject(b.bufHandle)
		b.bufHandle = nil
	}
	b.size = 0
}

// Get opencl buffer handle.
func (b *Buffer) Handle() cl.Mem {
	return b.bufHandle
}

// Given an interface{} containing a non-empty slice return a pointer to its
// data and its length in bytes. Panics for other arguments.
func getSliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("getSliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		panic("getSliceData: supplied slice object is empty")
	}

	return reflVal.UnsafePointer(),
		sliceElemCount * int(reflVal.Type().Elem().Size())
}
