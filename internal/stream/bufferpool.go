package stream

import "sync"

// BufferSize is the size of the read buffer every Reader pulls from the pool.
const BufferSize = 1024

// bufferPool hands out read buffers so a busy keep-alive server does not
// allocate one per connection.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// GetBuffer returns a BufferSize byte buffer from the pool
func GetBuffer() []byte {
	buf := bufferPool.Get().(*[]byte)
	return (*buf)[:BufferSize]
}

// PutBuffer returns a buffer to the pool.
// Buffers that did not come from GetBuffer are left to the GC.
func PutBuffer(buf []byte) {
	if cap(buf) != BufferSize {
		return
	}
	full := buf[:BufferSize]
	bufferPool.Put(&full)
}
